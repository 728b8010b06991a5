/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package itemstore

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-openapi/strfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/itemstore/datastore/mock"
	"github.com/suparena/itemstore/provision"
	"github.com/suparena/itemstore/registry"
)

type event struct {
	Stream string    `dynamodbav:"stream"`
	At     time.Time `dynamodbav:"at"`
}

type textEvent struct {
	Stream string `dynamodbav:"stream"`
	At     string `dynamodbav:"at"`
}

type unixEvent struct {
	Stream string `dynamodbav:"stream"`
	At     int64  `dynamodbav:"at"`
}

type dayEvent struct {
	Stream string          `dynamodbav:"stream"`
	At     strfmt.DateTime `dynamodbav:"at"`
}

func fixedNow(t *testing.T, at time.Time) {
	t.Helper()
	prev := now
	now = func() time.Time { return at }
	t.Cleanup(func() { now = prev })
}

func newEventClient(t *testing.T) *Client {
	t.Helper()
	reg := registry.New()
	registry.MustRegister[event](reg, "events", "Stream", registry.WithRangeKey("At"))
	registry.MustRegister[textEvent](reg, "text_events", "Stream", registry.WithRangeKey("At"))
	registry.MustRegister[unixEvent](reg, "unix_events", "Stream", registry.WithRangeKey("At"))
	registry.MustRegister[dayEvent](reg, "day_events", "Stream", registry.WithRangeKey("At"))
	c, err := New(mock.New(), reg)
	require.NoError(t, err)
	return c
}

// values lists the expression values of a key condition in placeholder
// order, skipping the hash key value.
func values(t *testing.T, vals map[string]types.AttributeValue) []types.AttributeValue {
	t.Helper()
	out := make([]types.AttributeValue, 0, len(vals))
	for i := 1; i < len(vals); i++ {
		av, ok := vals[":"+string(rune('0'+i))]
		require.True(t, ok)
		out = append(out, av)
	}
	return out
}

func TestTimeValueFollowsFieldType(t *testing.T) {
	c := newEventClient(t)
	at := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

	p, err := MustOpen[event](c).Query("s").Range(After(at)).Params()
	require.NoError(t, err)
	assert.Equal(t, []types.AttributeValue{&types.AttributeValueMemberS{Value: "2026-03-04T05:06:07.000000000Z"}}, values(t, p.ExpressionAttributeValues))

	p, err = MustOpen[textEvent](c).Query("s").Range(Before(at.In(time.FixedZone("X", 3600)))).Params()
	require.NoError(t, err)
	assert.Equal(t, []types.AttributeValue{&types.AttributeValueMemberS{Value: "2026-03-04T05:06:07Z"}}, values(t, p.ExpressionAttributeValues))

	p, err = MustOpen[unixEvent](c).Query("s").Range(During(at, at.Add(time.Hour))).Params()
	require.NoError(t, err)
	assert.Equal(t, []types.AttributeValue{
		&types.AttributeValueMemberN{Value: "1772600767"},
		&types.AttributeValueMemberN{Value: "1772604367"},
	}, values(t, p.ExpressionAttributeValues))

	p, err = MustOpen[dayEvent](c).Query("s").Range(After(at)).Params()
	require.NoError(t, err)
	assert.Len(t, values(t, p.ExpressionAttributeValues), 1)
}

func TestInLastAndToday(t *testing.T) {
	c := newEventClient(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	fixedNow(t, base)

	events := MustOpen[event](c)
	require.NoError(t, events.CreateTable(ctx, provision.PayPerRequest()))
	for _, h := range []int{-30, -5, -1, 0} {
		require.NoError(t, events.Put(ctx, event{Stream: "s", At: base.Add(time.Duration(h) * time.Hour)}))
	}

	recent, err := events.Query("s").Range(InLast(2 * time.Hour)).All(ctx)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.True(t, recent[0].At.Equal(base.Add(-time.Hour)))

	today, err := events.Query("s").Range(Today()).All(ctx)
	require.NoError(t, err)
	assert.Len(t, today, 3)
}

func TestTimeRangeKeyOrdersByInstant(t *testing.T) {
	c := newEventClient(t)
	ctx := context.Background()
	noon := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	plus2 := time.FixedZone("UTC+2", 2*3600)

	events := MustOpen[event](c)
	days := MustOpen[dayEvent](c)
	require.NoError(t, events.CreateTable(ctx, provision.PayPerRequest()))
	require.NoError(t, days.CreateTable(ctx, provision.PayPerRequest()))

	written := []time.Time{
		noon,
		noon.Add(500 * time.Millisecond),
		noon.Add(-30 * time.Minute).In(plus2), // 13:30+02:00
	}
	for _, at := range written {
		require.NoError(t, events.Put(ctx, event{Stream: "s", At: at}))
		require.NoError(t, days.Put(ctx, dayEvent{Stream: "s", At: strfmt.DateTime(at)}))
	}

	all, err := events.Query("s").All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, all[0].At.Equal(written[2]))
	assert.True(t, all[1].At.Equal(written[0]))
	assert.True(t, all[2].At.Equal(written[1]))

	after, err := events.Query("s").Range(After(noon.Add(200 * time.Millisecond))).All(ctx)
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.True(t, after[0].At.Equal(written[1]))

	before, err := events.Query("s").Range(Before(noon.In(plus2))).All(ctx)
	require.NoError(t, err)
	require.Len(t, before, 1)
	assert.True(t, before[0].At.Equal(written[2]))

	during, err := days.Query("s").Range(During(noon.Add(-time.Hour), noon)).All(ctx)
	require.NoError(t, err)
	require.Len(t, during, 2)
	assert.True(t, time.Time(during[1].At).Equal(noon))
}
