package static

import (
	"context"
	"net/url"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/codes"

	"homework-backend/lib/htmlutil"
	"homework-backend/lib/scrapers/portal"
)

func (c *Client) AssignmentRows(ctx context.Context) ([]portal.Row, error) {
	ctx, span := tracer.Start(ctx, "client:AssignmentRows")
	defer span.End()

	doc, err := c.fetchDocument(ctx, c.sel.AssignmentsPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch assignments page")
		return nil, err
	}

	var rows []portal.Row
	doc.Find(c.sel.AssignmentRow).Each(func(_ int, s *goquery.Selection) {
		rows = append(rows, &domRow{client: c, sel: s})
	})
	return rows, nil
}

func (c *Client) GradeCards(ctx context.Context) ([]portal.Card, error) {
	ctx, span := tracer.Start(ctx, "client:GradeCards")
	defer span.End()

	doc, err := c.fetchDocument(ctx, c.sel.GradesPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch grades page")
		return nil, err
	}

	var cards []portal.Card
	doc.Find(c.sel.CourseCard).Each(func(_ int, s *goquery.Selection) {
		cards = append(cards, &domCard{client: c, sel: s})
	})
	return cards, nil
}

type domRow struct {
	client *Client
	sel    *goquery.Selection
}

func (r *domRow) Field(ctx context.Context, field portal.Field) (string, bool) {
	var selector string
	switch field {
	case portal.FieldTitle:
		selector = r.client.sel.RowTitle
	case portal.FieldCourse:
		selector = r.client.sel.RowCourse
	case portal.FieldStatus:
		selector = r.client.sel.RowStatus
	case portal.FieldDue:
		selector = r.client.sel.RowDue
	case portal.FieldLink:
		selector = r.client.sel.RowLink
	case portal.FieldPointsPossible:
		selector = r.client.sel.RowPointsPossible
	case portal.FieldPointsEarned:
		selector = r.client.sel.RowPointsEarned
	case portal.FieldDate:
		selector = r.client.sel.HistoryDate
	case portal.FieldPercent:
		selector = r.client.sel.HistoryPct
	default:
		return "", false
	}

	if selector == "" {
		return "", false
	}
	node := r.sel.Find(selector)
	if len(node.Nodes) == 0 {
		return "", false
	}
	if field == portal.FieldLink {
		href, ok := node.Attr("href")
		if !ok {
			return "", false
		}
		return r.client.resolveLink(href), true
	}
	return htmlutil.CleanText(node.Text()), true
}

type domCard struct {
	client *Client
	sel    *goquery.Selection
}

func (c *domCard) Name(ctx context.Context) (string, bool) {
	node := c.sel.Find(c.client.sel.CourseName)
	if len(node.Nodes) == 0 {
		return "", false
	}
	return htmlutil.CleanText(node.Text()), true
}

func (c *domCard) HistoryRows(ctx context.Context) ([]portal.Row, error) {
	var rows []portal.Row
	c.sel.Find(c.client.sel.HistoryRow).Each(func(_ int, s *goquery.Selection) {
		rows = append(rows, &domRow{client: c.client, sel: s})
	})
	return rows, nil
}

// resolveLink makes row links absolute against the portal base.
func (c *Client) resolveLink(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	return c.baseUrl.ResolveReference(u).String()
}

type session struct {
	client *Client
}

// Open creates a session backed by a plain HTTP client. Previously
// persisted cookies are restored before the first request.
func Open(ctx context.Context, opts ClientOptions) (portal.Session, error) {
	client, err := NewClient(ctx, opts)
	if err != nil {
		return nil, err
	}
	return session{client: client}, nil
}

func (s session) Adapter() portal.Adapter {
	return s.client
}

func (s session) Close(ctx context.Context) error {
	return s.client.PersistState(ctx)
}
