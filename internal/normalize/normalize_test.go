package normalize

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"testing"

	"guildscribe/internal/domain"
)

const guildID = int64(900)

type stubDirectory struct {
	count    int
	countErr error
	channels map[int64]domain.Channel
}

func (s *stubDirectory) MemberCount(_ context.Context, id int64) (int, error) {
	if s.countErr != nil {
		return 0, s.countErr
	}
	if id != guildID {
		return 0, fmt.Errorf("unexpected guild id %d", id)
	}
	return s.count, nil
}

func (s *stubDirectory) Channel(_ context.Context, id int64) (domain.Channel, error) {
	ch, ok := s.channels[id]
	if !ok {
		return domain.Channel{}, fmt.Errorf("%w: %d", domain.ErrChannelNotFound, id)
	}
	return ch, nil
}

func testDirectory() *stubDirectory {
	return &stubDirectory{
		count:    100,
		channels: map[int64]domain.Channel{7: {ID: 7, Name: "general"}},
	}
}

func TestMessageNormalization(t *testing.T) {
	n := New(guildID, testDirectory(), nil)
	data, err := n.Normalize(context.Background(), domain.MessagePosted{AuthorID: 42, AuthorName: "alice", ChannelID: 7})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	msg, ok := data.(*domain.MessageData)
	if !ok {
		t.Fatalf("unexpected data type %T", data)
	}
	want := domain.MessageData{AuthorID: 42, AuthorName: "alice", ChannelID: 7, ChannelName: "general", MemberCount: 100}
	if *msg != want {
		t.Fatalf("data = %+v, want %+v", *msg, want)
	}
}

func TestExcludedAuthorProducesNoRecord(t *testing.T) {
	n := New(guildID, testDirectory(), []int64{42})
	data, err := n.Normalize(context.Background(), domain.MessagePosted{AuthorID: 42, AuthorName: "bot", ChannelID: 7})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if data != nil {
		t.Fatalf("expected suppression, got %+v", data)
	}
}

func TestSchemaFieldSets(t *testing.T) {
	n := New(guildID, testDirectory(), nil)
	cases := []struct {
		ev   domain.GatewayEvent
		want []string
	}{
		{domain.MessagePosted{AuthorID: 1, AuthorName: "a", ChannelID: 7},
			[]string{"author_id", "author_name", "channel_id", "channel_name", "current_member_count"}},
		{domain.ReactionAdded{ChannelID: 7, Emoji: "wave", MemberID: 2, MemberName: "b"},
			[]string{"channel_id", "channel_name", "current_member_count", "emoji", "member_id", "member_name"}},
		{domain.MemberJoined{MemberID: 3},
			[]string{"current_member_count", "member_id"}},
		{domain.MemberRemoved{MemberID: 4},
			[]string{"current_member_count", "member_id"}},
		{domain.InviteCreated{InviteID: "xyz", InviterID: 5, InviterName: "c"},
			[]string{"current_member_count", "invite_id", "inviter_id", "inviter_name"}},
	}
	for _, c := range cases {
		data, err := n.Normalize(context.Background(), c.ev)
		if err != nil {
			t.Fatalf("%s: normalize: %v", c.ev.Kind(), err)
		}
		got := dataKeys(t, data)
		if len(got) != len(c.want) {
			t.Fatalf("%s: keys = %v, want %v", c.ev.Kind(), got, c.want)
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Fatalf("%s: keys = %v, want %v", c.ev.Kind(), got, c.want)
			}
		}
	}
}

func TestMemberCountUnavailableFailsSingleEvent(t *testing.T) {
	dir := testDirectory()
	dir.countErr = domain.ErrMemberCountUnavailable
	n := New(guildID, dir, nil)

	_, err := n.Normalize(context.Background(), domain.MemberJoined{MemberID: 3})
	if !errors.Is(err, domain.ErrMemberCountUnavailable) {
		t.Fatalf("expected ErrMemberCountUnavailable, got %v", err)
	}
}

func TestUnknownChannelFailsReaction(t *testing.T) {
	n := New(guildID, testDirectory(), nil)
	_, err := n.Normalize(context.Background(), domain.ReactionAdded{ChannelID: 999, Emoji: "x", MemberID: 1, MemberName: "a"})
	if !errors.Is(err, domain.ErrChannelNotFound) {
		t.Fatalf("expected ErrChannelNotFound, got %v", err)
	}
}

func dataKeys(t *testing.T, data any) []string {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal data: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("unmarshal data: %v", err)
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
