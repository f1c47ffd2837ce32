package notify

import (
	"context"
	"fmt"
	"testing"

	"github.com/manvote/crmdesk/broadcast"
	"github.com/manvote/crmdesk/db"
	"github.com/manvote/crmdesk/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedKeepsNewestFirstAndCaps(t *testing.T) {
	ctx := context.Background()
	res, err := db.OpenInMemoryBadger()
	require.NoError(t, err)
	defer res.Close()

	bus := broadcast.New()
	ch, cancel := bus.Subscribe(broadcast.TopicNotifications)
	defer cancel()

	feed := NewFeed(res, bus)
	for i := 0; i < FeedLimit+5; i++ {
		feed.Notify(ctx, New(fmt.Sprintf("n%d", i), "msg", models.NotifyInfo))
	}

	recent, err := feed.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, recent, FeedLimit)
	assert.Equal(t, fmt.Sprintf("n%d", FeedLimit+4), recent[0].Title)

	top, err := feed.Recent(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, top, 3)

	change := <-ch
	assert.Equal(t, broadcast.OpCreated, change.Op)
}

func TestMultiFansOut(t *testing.T) {
	a, b := &Recorder{}, &Recorder{}
	m := Multi{a, nil, b, NewLogNotifier()}

	m.Notify(context.Background(), New("Event Deleted", `Removed "x" from calendar.`, models.NotifyWarning))

	require.Len(t, a.Items, 1)
	require.Len(t, b.Items, 1)
	assert.Equal(t, "Event Deleted", b.Last().Title)
	assert.NotEmpty(t, b.Last().ID)
}

func TestRecorderLastEmpty(t *testing.T) {
	assert.Equal(t, models.Notification{}, (&Recorder{}).Last())
}
