// Package domain holds the event model shared by the gateway adapter, the
// normalizers and the journal. It is independent of the platform client and
// of any storage implementation.
package domain

import (
	"context"
	"errors"
)

// EventKind is the closed set of observed occurrences. The kind string is
// written verbatim into the journal, so values are part of the file format.
type EventKind string

const (
	KindMessage      EventKind = "message"
	KindReactionAdd  EventKind = "reaction_add"
	KindMemberJoin   EventKind = "member_join"
	KindMemberRemove EventKind = "member_remove"
	KindInviteCreate EventKind = "invite_create"
)

// Kinds lists every observable event kind.
func Kinds() []EventKind {
	return []EventKind{KindMessage, KindReactionAdd, KindMemberJoin, KindMemberRemove, KindInviteCreate}
}

// GatewayEvent is one inbound platform occurrence, already converted from
// the wire representation. Adding a kind requires a new variant here plus a
// normalizer for it.
type GatewayEvent interface {
	Kind() EventKind
}

type MessagePosted struct {
	AuthorID   int64
	AuthorName string
	ChannelID  int64
}

type ReactionAdded struct {
	ChannelID  int64
	Emoji      string
	MemberID   int64
	MemberName string
}

type MemberJoined struct {
	MemberID int64
}

type MemberRemoved struct {
	MemberID int64
}

type InviteCreated struct {
	InviteID    string
	InviterID   int64
	InviterName string
}

func (MessagePosted) Kind() EventKind { return KindMessage }
func (ReactionAdded) Kind() EventKind { return KindReactionAdd }
func (MemberJoined) Kind() EventKind  { return KindMemberJoin }
func (MemberRemoved) Kind() EventKind { return KindMemberRemove }
func (InviteCreated) Kind() EventKind { return KindInviteCreate }

// Per-kind journal data schemas. The field sets are a structural contract
// other tooling parses; every field is required when the object is present.

type MessageData struct {
	AuthorID    int64  `json:"author_id"`
	AuthorName  string `json:"author_name"`
	ChannelID   int64  `json:"channel_id"`
	ChannelName string `json:"channel_name"`
	MemberCount int    `json:"current_member_count"`
}

type ReactionData struct {
	ChannelID   int64  `json:"channel_id"`
	ChannelName string `json:"channel_name"`
	Emoji       string `json:"emoji"`
	MemberName  string `json:"member_name"`
	MemberID    int64  `json:"member_id"`
	MemberCount int    `json:"current_member_count"`
}

type MemberData struct {
	MemberID    int64 `json:"member_id"`
	MemberCount int   `json:"current_member_count"`
}

type InviteData struct {
	InviteID    string `json:"invite_id"`
	InviterID   int64  `json:"inviter_id"`
	InviterName string `json:"inviter_name"`
	MemberCount int    `json:"current_member_count"`
}

// Channel is the cached channel identity used to enrich records.
type Channel struct {
	ID   int64
	Name string
}

var (
	// ErrMemberCountUnavailable means the platform has not reported a member
	// count for the community yet. The affected event is dropped rather than
	// written with a defaulted count.
	ErrMemberCountUnavailable = errors.New("member count is not available")

	// ErrChannelNotFound means a channel id could not be resolved from the
	// client cache.
	ErrChannelNotFound = errors.New("channel not found in cache")
)

// Directory is the read-only lookup capability supplied by the gateway
// client. Both calls may block while the underlying client fills its cache.
type Directory interface {
	MemberCount(ctx context.Context, guildID int64) (int, error)
	Channel(ctx context.Context, channelID int64) (Channel, error)
}
