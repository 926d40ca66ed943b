package discord

import (
	"encoding/json"
	"strings"
)

// Interaction callback types. Only the small closed set the service handles
// is modeled; anything else falls through to a generic acknowledgment.
const (
	InteractionPing      = 1
	InteractionComponent = 3
)

// Interaction response types.
const (
	ResponsePong           = 1
	ResponseChannelMessage = 4
)

// MessageFlagEphemeral makes a response visible only to the acting user.
const MessageFlagEphemeral = 64

// customIDTag is the fixed first field of a rating button's custom id.
const customIDTag = "rate"

// CommandPrefix starts every text resolution command.
const CommandPrefix = "!rate"

// Interaction is the decoded body of an interaction callback.
type Interaction struct {
	Type   int              `json:"type"`
	Data   *InteractionData `json:"data,omitempty"`
	Member *Member          `json:"member,omitempty"`
	User   *User            `json:"user,omitempty"`
}

type InteractionData struct {
	CustomID string `json:"custom_id"`
}

type Member struct {
	User *User `json:"user,omitempty"`
}

type User struct {
	ID  string `json:"id"`
	Bot bool   `json:"bot,omitempty"`
}

// ActorID returns the id of the user behind the interaction, whether it
// arrived from a guild (member.user) or a DM (user).
func (i *Interaction) ActorID() string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

// InteractionResponse is the synchronous reply to an interaction callback.
type InteractionResponse struct {
	Type int                      `json:"type"`
	Data *InteractionResponseData `json:"data,omitempty"`
}

type InteractionResponseData struct {
	Content string `json:"content,omitempty"`
	Flags   int    `json:"flags,omitempty"`
}

// Pong acknowledges a liveness probe.
func Pong() InteractionResponse {
	return InteractionResponse{Type: ResponsePong}
}

// EphemeralReply builds a type-4 response shown only to the clicking user.
func EphemeralReply(content string) InteractionResponse {
	return InteractionResponse{
		Type: ResponseChannelMessage,
		Data: &InteractionResponseData{Content: content, Flags: MessageFlagEphemeral},
	}
}

// RatingCustomID encodes a button's custom id: "rate:<id>:<label>".
func RatingCustomID(requestID, label string) string {
	return strings.Join([]string{customIDTag, requestID, label}, ":")
}

// ParseRatingCustomID decodes a button custom id. Anything that is not
// exactly three colon-separated fields under the "rate" tag, or carries an
// empty id or label, is rejected.
func ParseRatingCustomID(customID string) (requestID, label string, ok bool) {
	parts := strings.Split(customID, ":")
	if len(parts) != 3 || parts[0] != customIDTag {
		return "", "", false
	}
	if parts[1] == "" || parts[2] == "" {
		return "", "", false
	}
	return parts[1], parts[2], true
}

// ParseRateCommand decodes "!rate <id> <result...>"; the result is the
// remaining tokens joined with single spaces.
func ParseRateCommand(content string) (requestID, result string, ok bool) {
	fields := strings.Fields(content)
	if len(fields) < 3 || fields[0] != CommandPrefix {
		return "", "", false
	}
	return fields[1], strings.Join(fields[2:], " "), true
}

// Message is the subset of a gateway MESSAGE_CREATE event the listener uses.
type Message struct {
	ID        string `json:"id"`
	ChannelID string `json:"channel_id"`
	Content   string `json:"content"`
	Author    User   `json:"author"`
}

// Component payloads for outbound messages.

type component struct {
	Type       int         `json:"type"`
	Label      string      `json:"label,omitempty"`
	Style      int         `json:"style,omitempty"`
	CustomID   string      `json:"custom_id,omitempty"`
	Components []component `json:"components,omitempty"`
}

const (
	componentActionRow = 1
	componentButton    = 2
	buttonStylePrimary = 1
)

// ratingRow builds one action row with a button per result option.
func ratingRow(requestID string, options []string) json.RawMessage {
	row := component{Type: componentActionRow}
	for _, opt := range options {
		row.Components = append(row.Components, component{
			Type:     componentButton,
			Style:    buttonStylePrimary,
			Label:    opt,
			CustomID: RatingCustomID(requestID, opt),
		})
	}
	raw, _ := json.Marshal([]component{row})
	return raw
}
