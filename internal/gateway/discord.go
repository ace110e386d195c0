// Package gateway adapts the Discord gateway connection to the capture
// pipeline: it converts raw gateway payloads into domain events, feeds them
// to the dispatcher one at a time, and exposes the state cache as the
// read-only Directory capability.
package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"guildscribe/internal/domain"

	"github.com/bwmarrin/discordgo"
)

// Dispatcher consumes converted gateway events.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev domain.GatewayEvent) error
	Ready()
}

// Client owns the gateway session. Connection management, heartbeats and
// reconnects belong to discordgo; this type only subscribes.
type Client struct {
	session *discordgo.Session
	disp    Dispatcher
	log     *slog.Logger

	ctx context.Context

	stateGuild   func(id string) (*discordgo.Guild, error)
	stateChannel func(id string) (*discordgo.Channel, error)
}

func New(token string, log *slog.Logger) (*Client, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("new discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsAll
	// Journal ordering must match delivery order: handle events on the
	// gateway goroutine, one at a time.
	session.SyncEvents = true

	c := &Client{
		session: session,
		log:     log,
		ctx:     context.Background(),
	}
	c.stateGuild = session.State.Guild
	c.stateChannel = session.State.Channel
	return c, nil
}

// SetDispatcher installs the event consumer. The dispatcher depends on this
// client for its lookups, so wiring happens in two steps; it must be set
// before Run.
func (c *Client) SetDispatcher(disp Dispatcher) { c.disp = disp }

// Run opens the gateway connection and blocks until ctx is cancelled. No
// in-flight event is interrupted: the current handler finishes before the
// session closes.
func (c *Client) Run(ctx context.Context) error {
	if c.disp == nil {
		return fmt.Errorf("dispatcher is not set")
	}
	c.ctx = ctx
	c.session.AddHandler(c.onReady)
	c.session.AddHandler(c.onMessageCreate)
	c.session.AddHandler(c.onReactionAdd)
	c.session.AddHandler(c.onMemberAdd)
	c.session.AddHandler(c.onMemberRemove)
	c.session.AddHandler(c.onInviteCreate)

	if err := c.session.Open(); err != nil {
		return fmt.Errorf("open gateway: %w", err)
	}
	<-ctx.Done()
	if err := c.session.Close(); err != nil {
		return fmt.Errorf("close gateway: %w", err)
	}
	return ctx.Err()
}

// MemberCount implements domain.Directory from the session state cache.
func (c *Client) MemberCount(_ context.Context, guildID int64) (int, error) {
	g, err := c.stateGuild(strconv.FormatInt(guildID, 10))
	if err != nil || g.MemberCount == 0 {
		return 0, domain.ErrMemberCountUnavailable
	}
	return g.MemberCount, nil
}

// Channel implements domain.Directory from the session state cache.
func (c *Client) Channel(_ context.Context, channelID int64) (domain.Channel, error) {
	ch, err := c.stateChannel(strconv.FormatInt(channelID, 10))
	if err != nil {
		return domain.Channel{}, fmt.Errorf("%w: %d", domain.ErrChannelNotFound, channelID)
	}
	id, err := parseSnowflake(ch.ID)
	if err != nil {
		return domain.Channel{}, fmt.Errorf("%w: %d", domain.ErrChannelNotFound, channelID)
	}
	return domain.Channel{ID: id, Name: ch.Name}, nil
}

func (c *Client) onReady(_ *discordgo.Session, _ *discordgo.Ready) {
	c.disp.Ready()
}

func (c *Client) onMessageCreate(_ *discordgo.Session, m *discordgo.MessageCreate) {
	ev, err := messagePosted(m)
	if err != nil {
		c.log.Warn("drop message event", "error", err)
		return
	}
	c.log.Debug("received message", "author_id", ev.AuthorID)
	_ = c.disp.Dispatch(c.ctx, ev)
}

func (c *Client) onReactionAdd(_ *discordgo.Session, r *discordgo.MessageReactionAdd) {
	ev, err := reactionAdded(r)
	if err != nil {
		c.log.Warn("drop reaction event", "error", err)
		return
	}
	c.log.Debug("received reaction add", "emoji", ev.Emoji)
	_ = c.disp.Dispatch(c.ctx, ev)
}

func (c *Client) onMemberAdd(_ *discordgo.Session, m *discordgo.GuildMemberAdd) {
	ev, err := memberJoined(m)
	if err != nil {
		c.log.Warn("drop member join event", "error", err)
		return
	}
	c.log.Debug("member joined", "member_id", ev.MemberID)
	_ = c.disp.Dispatch(c.ctx, ev)
}

func (c *Client) onMemberRemove(_ *discordgo.Session, m *discordgo.GuildMemberRemove) {
	ev, err := memberRemoved(m)
	if err != nil {
		c.log.Warn("drop member remove event", "error", err)
		return
	}
	c.log.Debug("member removed", "member_id", ev.MemberID)
	_ = c.disp.Dispatch(c.ctx, ev)
}

func (c *Client) onInviteCreate(_ *discordgo.Session, i *discordgo.InviteCreate) {
	ev, err := inviteCreated(i)
	if err != nil {
		c.log.Warn("drop invite event", "error", err)
		return
	}
	c.log.Debug("invite created", "invite_id", ev.InviteID)
	_ = c.disp.Dispatch(c.ctx, ev)
}

func messagePosted(m *discordgo.MessageCreate) (domain.MessagePosted, error) {
	if m.Author == nil {
		return domain.MessagePosted{}, fmt.Errorf("message without author")
	}
	authorID, err := parseSnowflake(m.Author.ID)
	if err != nil {
		return domain.MessagePosted{}, fmt.Errorf("author id: %w", err)
	}
	channelID, err := parseSnowflake(m.ChannelID)
	if err != nil {
		return domain.MessagePosted{}, fmt.Errorf("channel id: %w", err)
	}
	return domain.MessagePosted{
		AuthorID:   authorID,
		AuthorName: m.Author.Username,
		ChannelID:  channelID,
	}, nil
}

func reactionAdded(r *discordgo.MessageReactionAdd) (domain.ReactionAdded, error) {
	if r.Member == nil || r.Member.User == nil {
		return domain.ReactionAdded{}, fmt.Errorf("reaction without member")
	}
	channelID, err := parseSnowflake(r.ChannelID)
	if err != nil {
		return domain.ReactionAdded{}, fmt.Errorf("channel id: %w", err)
	}
	memberID, err := parseSnowflake(r.Member.User.ID)
	if err != nil {
		return domain.ReactionAdded{}, fmt.Errorf("member id: %w", err)
	}
	return domain.ReactionAdded{
		ChannelID:  channelID,
		Emoji:      r.Emoji.Name,
		MemberID:   memberID,
		MemberName: r.Member.User.Username,
	}, nil
}

func memberJoined(m *discordgo.GuildMemberAdd) (domain.MemberJoined, error) {
	if m.User == nil {
		return domain.MemberJoined{}, fmt.Errorf("member join without user")
	}
	id, err := parseSnowflake(m.User.ID)
	if err != nil {
		return domain.MemberJoined{}, fmt.Errorf("member id: %w", err)
	}
	return domain.MemberJoined{MemberID: id}, nil
}

func memberRemoved(m *discordgo.GuildMemberRemove) (domain.MemberRemoved, error) {
	if m.User == nil {
		return domain.MemberRemoved{}, fmt.Errorf("member remove without user")
	}
	id, err := parseSnowflake(m.User.ID)
	if err != nil {
		return domain.MemberRemoved{}, fmt.Errorf("member id: %w", err)
	}
	return domain.MemberRemoved{MemberID: id}, nil
}

func inviteCreated(i *discordgo.InviteCreate) (domain.InviteCreated, error) {
	if i.Invite == nil || i.Inviter == nil {
		return domain.InviteCreated{}, fmt.Errorf("invite without inviter")
	}
	inviterID, err := parseSnowflake(i.Inviter.ID)
	if err != nil {
		return domain.InviteCreated{}, fmt.Errorf("inviter id: %w", err)
	}
	return domain.InviteCreated{
		InviteID:    i.Code,
		InviterID:   inviterID,
		InviterName: i.Inviter.Username,
	}, nil
}

func parseSnowflake(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse snowflake %q: %w", s, err)
	}
	return id, nil
}
