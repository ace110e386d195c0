// Package normalize maps inbound gateway events onto the fixed per-kind
// journal schemas, enriching each record with the current member count of
// the monitored community.
package normalize

import (
	"context"
	"fmt"

	"guildscribe/internal/domain"
)

// Normalizer is pure aside from the Directory lookups: the same event and
// lookup results always produce the same data object.
type Normalizer struct {
	guildID  int64
	dir      domain.Directory
	excluded map[int64]struct{}
}

// New builds a normalizer for one monitored community. Messages whose author
// id is in excludedAuthors are suppressed entirely, producing no record.
func New(guildID int64, dir domain.Directory, excludedAuthors []int64) *Normalizer {
	excluded := make(map[int64]struct{}, len(excludedAuthors))
	for _, id := range excludedAuthors {
		excluded[id] = struct{}{}
	}
	return &Normalizer{guildID: guildID, dir: dir, excluded: excluded}
}

// Normalize returns the journal data for ev, or (nil, nil) when the event is
// suppressed. A failed lookup fails the single event: no default is
// substituted and no partial record is emitted.
func (n *Normalizer) Normalize(ctx context.Context, ev domain.GatewayEvent) (any, error) {
	switch e := ev.(type) {
	case domain.MessagePosted:
		return n.message(ctx, e)
	case domain.ReactionAdded:
		return n.reaction(ctx, e)
	case domain.MemberJoined:
		return n.member(ctx, e.MemberID)
	case domain.MemberRemoved:
		return n.member(ctx, e.MemberID)
	case domain.InviteCreated:
		return n.invite(ctx, e)
	default:
		return nil, fmt.Errorf("unsupported event kind %q", ev.Kind())
	}
}

func (n *Normalizer) message(ctx context.Context, ev domain.MessagePosted) (any, error) {
	if _, ok := n.excluded[ev.AuthorID]; ok {
		return nil, nil
	}
	ch, err := n.dir.Channel(ctx, ev.ChannelID)
	if err != nil {
		return nil, err
	}
	count, err := n.dir.MemberCount(ctx, n.guildID)
	if err != nil {
		return nil, err
	}
	return &domain.MessageData{
		AuthorID:    ev.AuthorID,
		AuthorName:  ev.AuthorName,
		ChannelID:   ch.ID,
		ChannelName: ch.Name,
		MemberCount: count,
	}, nil
}

func (n *Normalizer) reaction(ctx context.Context, ev domain.ReactionAdded) (any, error) {
	ch, err := n.dir.Channel(ctx, ev.ChannelID)
	if err != nil {
		return nil, err
	}
	count, err := n.dir.MemberCount(ctx, n.guildID)
	if err != nil {
		return nil, err
	}
	return &domain.ReactionData{
		ChannelID:   ch.ID,
		ChannelName: ch.Name,
		Emoji:       ev.Emoji,
		MemberName:  ev.MemberName,
		MemberID:    ev.MemberID,
		MemberCount: count,
	}, nil
}

func (n *Normalizer) member(ctx context.Context, memberID int64) (any, error) {
	count, err := n.dir.MemberCount(ctx, n.guildID)
	if err != nil {
		return nil, err
	}
	return &domain.MemberData{MemberID: memberID, MemberCount: count}, nil
}

func (n *Normalizer) invite(ctx context.Context, ev domain.InviteCreated) (any, error) {
	count, err := n.dir.MemberCount(ctx, n.guildID)
	if err != nil {
		return nil, err
	}
	return &domain.InviteData{
		InviteID:    ev.InviteID,
		InviterID:   ev.InviterID,
		InviterName: ev.InviterName,
		MemberCount: count,
	}, nil
}
