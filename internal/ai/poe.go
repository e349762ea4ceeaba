package ai

import (
	"bytes"
	"context"
	"crypto/md5"
	"embed"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gorilla/websocket"

	"github.com/muratoffalex/poegram/internal/config"
	"github.com/muratoffalex/poegram/internal/logger"
)

//go:embed queries/*.graphql
var queriesFS embed.FS

const (
	tagSalt = "WpuLMiXEKKE98j56k"

	purgeBatchSize     = 50
	purgeMaxIterations = 100

	streamIdleTimeout = 3 * time.Minute
)

// Accept-Encoding is left to net/http so responses are decompressed transparently.
var defaultPoeHeaders = map[string]string{
	"User-Agent":                "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/112.0.0.0 Safari/537.36",
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
	"Accept-Language":           "en-US,en;q=0.5",
	"Upgrade-Insecure-Requests": "1",
}

type poeBot struct {
	ID          string
	ChatID      int64
	Codename    string
	DisplayName string
}

type poeChannel struct {
	MinSeq      flexString `json:"minSeq"`
	Channel     string     `json:"channel"`
	ChannelHash string     `json:"channelHash"`
	BoxName     string     `json:"boxName"`
	BaseHost    string     `json:"baseHost"`
}

// poeSession is everything derived from one cookie value.
type poeSession struct {
	cookie    string
	buildID   string
	formkey   string
	channel   poeChannel
	streamURL string
	bots      map[string]poeBot
	models    []Model
}

// PoeClient talks to the unofficial poe.com web API: GraphQL over HTTP for
// commands and a websocket channel for streamed replies.
type PoeClient struct {
	cfg        config.PoeConfig
	cookie     func() string
	httpClient *http.Client
	dialer     *websocket.Dialer
	logger     logger.Logger

	mu      sync.Mutex
	session *poeSession

	// sendSem serializes replies; every socket receives all channel messages.
	sendSem chan struct{}
}

func NewPoeClient(
	cfg config.PoeConfig,
	cookie func() string,
	httpClient *http.Client,
	dialer *websocket.Dialer,
	log logger.Logger,
) *PoeClient {
	if cookie == nil {
		cookie = func() string { return cfg.Cookie }
	}
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	return &PoeClient{
		cfg:        cfg,
		cookie:     cookie,
		httpClient: httpClient,
		dialer:     dialer,
		logger:     log.WithField("backend", "poe"),
		sendSem:    make(chan struct{}, 1),
	}
}

// Invalidate forces the next call to rebuild the session.
func (c *PoeClient) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = nil
}

func (c *PoeClient) BotNames(ctx context.Context) ([]Model, error) {
	sess, err := c.getSession(ctx)
	if err != nil {
		return nil, err
	}
	return append([]Model(nil), sess.models...), nil
}

func (c *PoeClient) SendChatBreak(ctx context.Context, codename string) error {
	sess, bot, err := c.resolve(ctx, codename)
	if err != nil {
		return err
	}
	_, err = c.gql(ctx, sess, "AddMessageBreakMutation", map[string]any{"chatId": bot.ChatID})
	if err != nil {
		return &BackendError{Op: "chat break", Model: codename, OriginalErr: err}
	}
	c.logger.WithField("model", codename).Info("Chat break sent")
	return nil
}

func (c *PoeClient) PurgeConversation(ctx context.Context, codename string) error {
	sess, bot, err := c.resolve(ctx, codename)
	if err != nil {
		return err
	}

	deleted := 0
	for range purgeMaxIterations {
		ids, err := c.messageHistory(ctx, sess, bot, purgeBatchSize)
		if err != nil {
			return &BackendError{Op: "purge", Model: codename, OriginalErr: err}
		}
		if len(ids) == 0 {
			break
		}
		if _, err := c.gql(ctx, sess, "DeleteMessageMutation", map[string]any{"messageIds": ids}); err != nil {
			return &BackendError{Op: "purge", Model: codename, OriginalErr: err}
		}
		deleted += len(ids)
	}

	c.logger.WithFields(logger.Fields{
		"model":   codename,
		"deleted": deleted,
	}).Info("Conversation purged")
	return nil
}

func (c *PoeClient) SendMessage(ctx context.Context, codename, text string, withChatBreak bool) (<-chan Chunk, error) {
	sess, bot, err := c.resolve(ctx, codename)
	if err != nil {
		return nil, err
	}

	select {
	case c.sendSem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	release := func() { <-c.sendSem }

	conn, err := c.dial(ctx, sess)
	if err != nil {
		release()
		return nil, &BackendError{Op: "connect", Model: codename, OriginalErr: err}
	}

	data, err := c.gql(ctx, sess, "SendMessageMutation", map[string]any{
		"bot":           codename,
		"query":         text,
		"chatId":        bot.ChatID,
		"source":        nil,
		"withChatBreak": withChatBreak,
	})
	if err != nil {
		conn.Close()
		release()
		return nil, &BackendError{Op: "send", Model: codename, OriginalErr: err}
	}

	var sent struct {
		MessageEdgeCreate struct {
			Status  string `json:"status"`
			Message *struct {
				Node struct {
					MessageID int64 `json:"messageId"`
				} `json:"node"`
			} `json:"message"`
		} `json:"messageEdgeCreate"`
	}
	if err := json.Unmarshal(data, &sent); err != nil || sent.MessageEdgeCreate.Message == nil {
		conn.Close()
		release()
		return nil, &BackendError{
			Op:          "send",
			Model:       codename,
			Message:     "message rejected, status: " + sent.MessageEdgeCreate.Status,
			OriginalErr: err,
		}
	}
	humanID := sent.MessageEdgeCreate.Message.Node.MessageID

	c.logger.WithFields(logger.Fields{
		"model":      codename,
		"message_id": humanID,
	}).Debug("Message sent, awaiting reply")

	ch := make(chan Chunk)
	go func() {
		defer close(ch)
		defer release()
		defer conn.Close()
		c.stream(ctx, conn, codename, humanID, ch)
	}()
	return ch, nil
}

func (c *PoeClient) stream(ctx context.Context, conn *websocket.Conn, codename string, humanID int64, ch chan<- Chunk) {
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	emit := func(chunk Chunk) bool {
		select {
		case ch <- chunk:
			return true
		case <-ctx.Done():
			return false
		}
	}

	var lastText string
	for {
		_ = conn.SetReadDeadline(time.Now().Add(streamIdleTimeout))
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				err = ctx.Err()
			}
			emit(Chunk{Err: &BackendError{Op: "stream", Model: codename, OriginalErr: err}})
			return
		}

		c.logger.WithField("raw_data", string(raw)).Trace("Raw channel frame")

		messages, err := parseChannelFrame(raw)
		if err != nil {
			c.logger.WithError(err).Warn("Undecodable channel frame")
			continue
		}
		for _, msg := range messages {
			if msg.Author != codename || msg.MessageID <= humanID {
				continue
			}
			textNew := strings.TrimPrefix(msg.Text, lastText)
			if !strings.HasPrefix(msg.Text, lastText) {
				textNew = msg.Text
			}
			lastText = msg.Text
			done := msg.State == "complete"

			if !emit(Chunk{TextNew: textNew, Text: msg.Text, Done: done}) || done {
				return
			}
		}
	}
}

type addedMessage struct {
	MessageID int64  `json:"messageId"`
	Author    string `json:"author"`
	State     string `json:"state"`
	Text      string `json:"text"`
}

// parseChannelFrame extracts messageAdded payloads. Frames carry a list of
// JSON-encoded strings, each an independent subscription update.
func parseChannelFrame(raw []byte) ([]addedMessage, error) {
	var frame struct {
		Messages []string `json:"messages"`
	}
	if err := json.Unmarshal(raw, &frame); err != nil {
		return nil, err
	}

	var out []addedMessage
	for _, encoded := range frame.Messages {
		var update struct {
			MessageType string `json:"message_type"`
			Payload     struct {
				SubscriptionName string `json:"subscription_name"`
				Data             struct {
					MessageAdded *addedMessage `json:"messageAdded"`
				} `json:"data"`
			} `json:"payload"`
		}
		if err := json.Unmarshal([]byte(encoded), &update); err != nil {
			return nil, err
		}
		if update.MessageType != "subscriptionUpdate" || update.Payload.Data.MessageAdded == nil {
			continue
		}
		out = append(out, *update.Payload.Data.MessageAdded)
	}
	return out, nil
}

func (c *PoeClient) dial(ctx context.Context, sess *poeSession) (*websocket.Conn, error) {
	header := http.Header{}
	header.Set("Cookie", "p-b="+sess.cookie)
	header.Set("User-Agent", c.headerValue("User-Agent"))

	conn, resp, err := c.dialer.DialContext(ctx, sess.streamURL, header)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
			return nil, fmt.Errorf("websocket dial failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("websocket dial failed: %w", err)
	}
	return conn, nil
}

func (c *PoeClient) messageHistory(ctx context.Context, sess *poeSession, bot poeBot, count int) ([]int64, error) {
	data, err := c.gql(ctx, sess, "ChatListPaginationQuery", map[string]any{
		"count":  count,
		"cursor": nil,
		"id":     bot.ID,
	})
	if err != nil {
		return nil, err
	}

	var history struct {
		Node struct {
			MessagesConnection struct {
				Edges []struct {
					Node struct {
						MessageID int64 `json:"messageId"`
					} `json:"node"`
				} `json:"edges"`
			} `json:"messagesConnection"`
		} `json:"node"`
	}
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}

	ids := make([]int64, 0, len(history.Node.MessagesConnection.Edges))
	for _, edge := range history.Node.MessagesConnection.Edges {
		ids = append(ids, edge.Node.MessageID)
	}
	return ids, nil
}

func (c *PoeClient) resolve(ctx context.Context, codename string) (*poeSession, poeBot, error) {
	sess, err := c.getSession(ctx)
	if err != nil {
		return nil, poeBot{}, err
	}
	bot, ok := sess.bots[codename]
	if !ok {
		return nil, poeBot{}, fmt.Errorf("%w: %s", ErrUnknownModel, codename)
	}
	return sess, bot, nil
}

// getSession returns the cached session, rebuilding it when the cookie changed.
func (c *PoeClient) getSession(ctx context.Context) (*poeSession, error) {
	cookie := c.cookie()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil && c.session.cookie == cookie {
		return c.session, nil
	}
	if cookie == "" {
		return nil, &BackendError{Op: "init", Message: "poe cookie is empty"}
	}

	sess, err := c.newSession(ctx, cookie)
	if err != nil {
		return nil, &BackendError{Op: "init", OriginalErr: err}
	}
	c.session = sess
	c.logger.WithField("bots", len(sess.models)).Info("Poe session initialized")
	return sess, nil
}

func (c *PoeClient) newSession(ctx context.Context, cookie string) (*poeSession, error) {
	sess := &poeSession{cookie: cookie, bots: make(map[string]poeBot)}

	next, err := c.nextData(ctx, sess)
	if err != nil {
		return nil, err
	}
	sess.buildID = next.BuildID
	sess.formkey = next.Props.Formkey
	if sess.formkey == "" {
		return nil, errors.New("formkey not found, the cookie is probably invalid")
	}

	if err := c.loadChannel(ctx, sess); err != nil {
		return nil, err
	}

	for _, available := range next.Props.PageProps.Payload.Viewer.AvailableBots {
		bot, err := c.botData(ctx, sess, available.DisplayName)
		if err != nil {
			return nil, err
		}
		if _, dup := sess.bots[bot.Codename]; dup {
			continue
		}
		sess.bots[bot.Codename] = bot
		sess.models = append(sess.models, Model{Codename: bot.Codename, DisplayName: bot.DisplayName})
	}

	if err := c.subscribe(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

type nextData struct {
	BuildID string `json:"buildId"`
	Props   struct {
		Formkey   string `json:"formkey"`
		PageProps struct {
			Payload struct {
				Viewer struct {
					AvailableBots []struct {
						DisplayName string `json:"displayName"`
					} `json:"availableBots"`
				} `json:"viewer"`
			} `json:"payload"`
		} `json:"pageProps"`
	} `json:"props"`
}

func (c *PoeClient) nextData(ctx context.Context, sess *poeSession) (*nextData, error) {
	body, err := c.get(ctx, sess, c.baseURL()+"/")
	if err != nil {
		return nil, fmt.Errorf("fetch home page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse home page: %w", err)
	}
	script := doc.Find("script#__NEXT_DATA__").First().Text()
	if script == "" {
		return nil, errors.New("__NEXT_DATA__ not found")
	}

	var next nextData
	if err := json.Unmarshal([]byte(script), &next); err != nil {
		return nil, fmt.Errorf("decode __NEXT_DATA__: %w", err)
	}
	return &next, nil
}

func (c *PoeClient) loadChannel(ctx context.Context, sess *poeSession) error {
	body, err := c.get(ctx, sess, c.baseURL()+"/api/settings")
	if err != nil {
		return fmt.Errorf("fetch channel settings: %w", err)
	}

	var settings struct {
		TChannelData poeChannel `json:"tchannelData"`
	}
	if err := json.Unmarshal(body, &settings); err != nil {
		return fmt.Errorf("decode channel settings: %w", err)
	}
	sess.channel = settings.TChannelData

	if c.cfg.StreamURL != "" {
		sess.streamURL = c.cfg.StreamURL
		return nil
	}
	query := url.Values{}
	query.Set("min_seq", string(sess.channel.MinSeq))
	query.Set("channel", sess.channel.Channel)
	query.Set("hash", sess.channel.ChannelHash)
	sess.streamURL = fmt.Sprintf("wss://tch%d.tch.%s/up/%s/updates?%s",
		rand.IntN(1_000_000)+1,
		sess.channel.BaseHost,
		sess.channel.BoxName,
		query.Encode(),
	)
	return nil
}

func (c *PoeClient) botData(ctx context.Context, sess *poeSession, displayName string) (poeBot, error) {
	endpoint := fmt.Sprintf("%s/_next/data/%s/%s.json", c.baseURL(), sess.buildID, url.PathEscape(displayName))
	body, err := c.get(ctx, sess, endpoint)
	if err != nil {
		return poeBot{}, fmt.Errorf("fetch bot %q: %w", displayName, err)
	}

	var data struct {
		PageProps struct {
			Payload struct {
				ChatOfBotDisplayName struct {
					ID               string `json:"id"`
					ChatID           int64  `json:"chatId"`
					DefaultBotObject struct {
						Nickname    string `json:"nickname"`
						DisplayName string `json:"displayName"`
					} `json:"defaultBotObject"`
				} `json:"chatOfBotDisplayName"`
			} `json:"payload"`
		} `json:"pageProps"`
	}
	if err := json.Unmarshal(body, &data); err != nil {
		return poeBot{}, fmt.Errorf("decode bot %q: %w", displayName, err)
	}

	chat := data.PageProps.Payload.ChatOfBotDisplayName
	if chat.DefaultBotObject.Nickname == "" {
		return poeBot{}, fmt.Errorf("bot %q has no codename", displayName)
	}
	name := chat.DefaultBotObject.DisplayName
	if name == "" {
		name = displayName
	}
	return poeBot{
		ID:          chat.ID,
		ChatID:      chat.ChatID,
		Codename:    chat.DefaultBotObject.Nickname,
		DisplayName: name,
	}, nil
}

func (c *PoeClient) subscribe(ctx context.Context, sess *poeSession) error {
	messageAdded, err := loadQuery("MessageAddedSubscription")
	if err != nil {
		return err
	}
	viewerState, err := loadQuery("ViewerStateUpdatedSubscription")
	if err != nil {
		return err
	}
	_, err = c.gql(ctx, sess, "SubscriptionsMutation", map[string]any{
		"subscriptions": []map[string]string{
			{"subscriptionName": "messageAdded", "query": messageAdded},
			{"subscriptionName": "viewerStateUpdated", "query": viewerState},
		},
	})
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	return nil
}

type gqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
	QueryName string         `json:"queryName"`
}

type gqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func (c *PoeClient) gql(ctx context.Context, sess *poeSession, queryName string, variables map[string]any) (json.RawMessage, error) {
	query, err := loadQuery(queryName)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(gqlRequest{Query: query, Variables: variables, QueryName: queryName})
	if err != nil {
		return nil, fmt.Errorf("marshal error: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL()+"/api/gql_POST", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request error: %w", err)
	}
	c.setHeaders(req, sess)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Poe-Formkey", sess.formkey)
	req.Header.Set("Poe-Tchannel", sess.channel.Channel)
	req.Header.Set("Poe-Tag-Id", tagID(payload, sess.formkey))

	c.logger.WithFields(logger.Fields{
		"query":     queryName,
		"variables": truncateVariables(variables),
	}).Debug("GraphQL request")

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var resp gqlResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", queryName, err)
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("%s: %s", queryName, resp.Errors[0].Message)
	}
	if len(resp.Data) == 0 || string(resp.Data) == "null" {
		return nil, fmt.Errorf("%s: empty data", queryName)
	}
	return resp.Data, nil
}

func (c *PoeClient) get(ctx context.Context, sess *poeSession, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request error: %w", err)
	}
	c.setHeaders(req, sess)
	return c.do(req)
}

func (c *PoeClient) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &BackendError{Message: "network request failed", OriginalErr: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &BackendError{Message: "failed to read response body", OriginalErr: err}
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &BackendError{
			HTTPStatusCode: resp.StatusCode,
			Message:        fmt.Sprintf("HTTP request failed with status code: %d", resp.StatusCode),
		}
	}
	return body, nil
}

func (c *PoeClient) setHeaders(req *http.Request, sess *poeSession) {
	for key, value := range defaultPoeHeaders {
		req.Header.Set(key, value)
	}
	for key, value := range c.cfg.Headers {
		if strings.EqualFold(key, "Accept-Encoding") {
			continue
		}
		req.Header.Set(key, value)
	}
	req.Header.Set("Cookie", "p-b="+sess.cookie)
	req.Header.Set("Referer", c.baseURL()+"/")
	req.Header.Set("Origin", c.baseURL())
}

func (c *PoeClient) headerValue(key string) string {
	for k, v := range c.cfg.Headers {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return defaultPoeHeaders[key]
}

func (c *PoeClient) baseURL() string {
	return strings.TrimSuffix(c.cfg.BaseURL, "/")
}

func loadQuery(name string) (string, error) {
	data, err := queriesFS.ReadFile("queries/" + name + ".graphql")
	if err != nil {
		return "", fmt.Errorf("unknown query %s: %w", name, err)
	}
	return string(data), nil
}

func tagID(payload []byte, formkey string) string {
	h := md5.New()
	h.Write(payload)
	h.Write([]byte(formkey))
	h.Write([]byte(tagSalt))
	return hex.EncodeToString(h.Sum(nil))
}

func truncateVariables(vars map[string]any) map[string]any {
	out := make(map[string]any, len(vars))
	for k, v := range vars {
		if s, ok := v.(string); ok && len(s) > 200 {
			v = s[:200] + "...[truncated]"
		}
		out[k] = v
	}
	return out
}

// flexString decodes both JSON strings and numbers.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = flexString(str)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	if _, err := strconv.ParseFloat(n.String(), 64); err != nil {
		return err
	}
	*s = flexString(n.String())
	return nil
}
