package firestore

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"boletin-iglesia/internal/model"
)

// ErrNotFound is returned when no bulletin is archived for the requested week.
var ErrNotFound = errors.New("bulletin not found")

// Client wraps the Firestore client for the weekly bulletin archive.
// Documents are keyed by week_of.
type Client struct {
	client     *firestore.Client
	collection string
}

// New creates a new Firestore client.
func New(ctx context.Context, projectID, collection string) (*Client, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}
	return &Client{
		client:     client,
		collection: collection,
	}, nil
}

// Close closes the Firestore client.
func (c *Client) Close() error {
	return c.client.Close()
}

// Save stores b under its week, replacing any earlier version.
func (c *Client) Save(ctx context.Context, b model.Bulletin) error {
	week, ok := b.Week()
	if !ok {
		return fmt.Errorf("bulletin has no week_of")
	}
	doc := c.client.Collection(c.collection).Doc(week)
	if _, err := doc.Set(ctx, bulletinToMap(b)); err != nil {
		return fmt.Errorf("saving bulletin %s: %w", week, err)
	}
	return nil
}

// Get returns the bulletin archived for week.
func (c *Client) Get(ctx context.Context, week string) (model.Bulletin, error) {
	snap, err := c.client.Collection(c.collection).Doc(week).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return model.Bulletin{}, fmt.Errorf("week %s: %w", week, ErrNotFound)
	}
	if err != nil {
		return model.Bulletin{}, fmt.Errorf("reading bulletin %s: %w", week, err)
	}
	return mapToBulletin(snap.Data()), nil
}

// Latest returns the bulletin with the most recent week_of.
func (c *Client) Latest(ctx context.Context) (model.Bulletin, error) {
	iter := c.client.Collection(c.collection).
		OrderBy("week_of", firestore.Desc).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return model.Bulletin{}, ErrNotFound
	}
	if err != nil {
		return model.Bulletin{}, fmt.Errorf("querying latest bulletin: %w", err)
	}
	return mapToBulletin(doc.Data()), nil
}

// Weeks lists archived weeks, newest first.
func (c *Client) Weeks(ctx context.Context) ([]string, error) {
	var weeks []string

	iter := c.client.Collection(c.collection).
		OrderBy("week_of", firestore.Desc).
		Select("week_of").
		Documents(ctx)
	defer iter.Stop()

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterating documents: %w", err)
		}
		if v, ok := doc.Data()["week_of"].(string); ok {
			weeks = append(weeks, v)
		}
	}

	return weeks, nil
}

// bulletinToMap converts a Bulletin to a Firestore document map.
// Unset optional fields are left out of the document.
func bulletinToMap(b model.Bulletin) map[string]interface{} {
	m := map[string]interface{}{}
	setOpt := func(m map[string]interface{}, key string, v *string) {
		if s, ok := model.Value(v); ok {
			m[key] = s
		}
	}

	setOpt(m, "week_of", b.WeekOf)
	setOpt(m, "service_time", b.ServiceTime)
	setOpt(m, "sermon_leader", b.SermonLeader)
	setOpt(m, "worship_leader", b.WorshipLeader)

	if b.SundaySchool != nil {
		ss := map[string]interface{}{}
		setOpt(ss, "adults", b.SundaySchool.Adults)
		setOpt(ss, "youth", b.SundaySchool.Youth)
		setOpt(ss, "pre", b.SundaySchool.Pre)
		setOpt(ss, "children", b.SundaySchool.Children)
		m["sunday_school"] = ss
	}

	anns := make([]interface{}, 0, len(b.Announcements))
	for _, a := range b.Announcements {
		anns = append(anns, map[string]interface{}{
			"title": a.Title,
			"body":  a.Body,
		})
	}
	m["announcements"] = anns

	return m
}

// mapToBulletin converts a Firestore document map to a Bulletin.
func mapToBulletin(m map[string]interface{}) model.Bulletin {
	b := model.Bulletin{}
	getOpt := func(m map[string]interface{}, key string) *string {
		if v, ok := m[key].(string); ok {
			return &v
		}
		return nil
	}

	b.WeekOf = getOpt(m, "week_of")
	b.ServiceTime = getOpt(m, "service_time")
	b.SermonLeader = getOpt(m, "sermon_leader")
	b.WorshipLeader = getOpt(m, "worship_leader")

	if ss, ok := m["sunday_school"].(map[string]interface{}); ok {
		b.SundaySchool = &model.SundaySchool{
			Adults:   getOpt(ss, "adults"),
			Youth:    getOpt(ss, "youth"),
			Pre:      getOpt(ss, "pre"),
			Children: getOpt(ss, "children"),
		}
	}

	if anns, ok := m["announcements"].([]interface{}); ok {
		for _, raw := range anns {
			am, ok := raw.(map[string]interface{})
			if !ok {
				continue
			}
			title, _ := am["title"].(string)
			body, _ := am["body"].(string)
			b.Announcements = append(b.Announcements, model.Announcement{Title: title, Body: body})
		}
	}

	return b
}
