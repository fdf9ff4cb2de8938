// Package twitter adapts the Twitter API v2 to the connection layer.
// Requests are OAuth 1.0a user-context signed; tweet creation, likes and
// timeline reads go through the v2 endpoints, media upload through v1.1.
package twitter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/dghubble/oauth1"
	"golang.org/x/time/rate"

	"github.com/nextlevelbuilder/finch/internal/config"
	"github.com/nextlevelbuilder/finch/internal/connections"
	"github.com/nextlevelbuilder/finch/internal/keystore"
)

// maxTweetLength is the hard limit the API enforces, counted in runes.
const maxTweetLength = 280

// Credential keys resolved through the keystore.
const (
	keyConsumerKey       = "twitter.consumer_key"
	keyConsumerSecret    = "twitter.consumer_secret"
	keyAccessToken       = "twitter.access_token"
	keyAccessTokenSecret = "twitter.access_token_secret"
)

// Connection is the Twitter adapter. It satisfies connections.SocialProvider.
type Connection struct {
	cfg   *config.ConnectionConfig
	state *connections.State

	client  *http.Client
	limiter *connections.WindowLimiter
	// burst smooths request spacing inside the per-minute window so retries
	// don't stack calls back to back.
	burst *rate.Limiter
	retry connections.RetryConfig

	userID   string
	username string

	apiBase    string
	uploadBase string
}

// New builds the adapter from its config block. Credentials are resolved at
// Initialize, not here.
func New(cfg *config.ConnectionConfig) *Connection {
	retry := connections.DefaultRetryConfig()
	if cfg.RetryAttempts > 0 {
		retry.Attempts = cfg.RetryAttempts
	}
	return &Connection{
		cfg:        cfg,
		state:      &connections.State{},
		limiter:    connections.NewWindowLimiter(cfg.RateLimitRPM),
		burst:      rate.NewLimiter(rate.Every(time.Second), 1),
		retry:      retry,
		userID:     cfg.UserID,
		username:   cfg.Username,
		apiBase:    "https://api.twitter.com",
		uploadBase: "https://upload.twitter.com",
	}
}

func (c *Connection) Name() string              { return "twitter" }
func (c *Connection) State() *connections.State { return c.state }

// Initialize resolves credentials, builds the signing client and verifies
// them against the authenticated-user endpoint.
func (c *Connection) Initialize(ctx context.Context) error {
	consumerKey, err := keystore.Get(keyConsumerKey)
	if err != nil {
		return err
	}
	consumerSecret, err := keystore.Get(keyConsumerSecret)
	if err != nil {
		return err
	}
	accessToken, err := keystore.Get(keyAccessToken)
	if err != nil {
		return err
	}
	accessSecret, err := keystore.Get(keyAccessTokenSecret)
	if err != nil {
		return err
	}

	oaConfig := oauth1.NewConfig(consumerKey, consumerSecret)
	token := oauth1.NewToken(accessToken, accessSecret)
	c.client = oaConfig.Client(ctx, token)

	var me struct {
		Data struct {
			ID       string `json:"id"`
			Username string `json:"username"`
		} `json:"data"`
	}
	if err := c.get(ctx, "/2/users/me", nil, &me); err != nil {
		return fmt.Errorf("verify credentials: %w", err)
	}
	if c.userID == "" {
		c.userID = me.Data.ID
	}
	if c.username == "" {
		c.username = me.Data.Username
	}

	c.state.SetConnected(true)
	return nil
}

// Shutdown drops the client. Idempotent.
func (c *Connection) Shutdown(ctx context.Context) error {
	c.client = nil
	c.state.SetConnected(false)
	return nil
}

// Actions is the capability table dispatched through the Manager.
func (c *Connection) Actions() map[string]connections.ActionSpec {
	return map[string]connections.ActionSpec{
		"read-timeline": {
			Name:        "read-timeline",
			Description: "Read the agent's home timeline",
			Params: []connections.ParamSpec{
				{Name: "count", Required: false, Description: "number of tweets to read"},
			},
		},
		"post-tweet": {
			Name:        "post-tweet",
			Description: "Post a new tweet",
			Params: []connections.ParamSpec{
				{Name: "message", Required: true, Description: "tweet text"},
			},
		},
		"post-tweet-with-media": {
			Name:        "post-tweet-with-media",
			Description: "Post a tweet with an attached image",
			Params: []connections.ParamSpec{
				{Name: "message", Required: true, Description: "tweet text"},
				{Name: "media_url", Required: true, Description: "URL of the image to attach"},
			},
		},
		"reply-to-tweet": {
			Name:        "reply-to-tweet",
			Description: "Reply to an existing tweet",
			Params: []connections.ParamSpec{
				{Name: "tweet_id", Required: true, Description: "id of the tweet to reply to"},
				{Name: "message", Required: true, Description: "reply text"},
			},
		},
		"like-tweet": {
			Name:        "like-tweet",
			Description: "Like a tweet",
			Params: []connections.ParamSpec{
				{Name: "tweet_id", Required: true, Description: "id of the tweet to like"},
			},
		},
		"get-tweet-replies": {
			Name:        "get-tweet-replies",
			Description: "Fetch replies to a tweet",
			Params: []connections.ParamSpec{
				{Name: "tweet_id", Required: true, Description: "id of the tweet"},
				{Name: "count", Required: false, Description: "maximum replies to fetch"},
			},
		},
	}
}

// Perform coerces positional params and forwards to the typed methods.
func (c *Connection) Perform(ctx context.Context, action string, params []any) (any, error) {
	switch action {
	case "read-timeline":
		return c.ReadTimeline(ctx, intParam(params, 0, c.cfg.TimelineReadCount))
	case "post-tweet":
		return c.Post(ctx, stringParam(params, 0))
	case "post-tweet-with-media":
		return c.PostWithMedia(ctx, stringParam(params, 0), stringParam(params, 1))
	case "reply-to-tweet":
		return c.Reply(ctx, stringParam(params, 0), stringParam(params, 1))
	case "like-tweet":
		return c.Like(ctx, stringParam(params, 0))
	case "get-tweet-replies":
		return c.Replies(ctx, stringParam(params, 0), intParam(params, 1, c.cfg.OwnRepliesCount))
	default:
		return nil, &connections.UnknownActionError{Connection: "twitter", Action: action}
	}
}

// ReadTimeline returns the newest tweets from the home timeline.
func (c *Connection) ReadTimeline(ctx context.Context, count int) ([]connections.Post, error) {
	if count <= 0 {
		count = 10
	}
	query := url.Values{
		// The API floor for max_results is 5.
		"max_results":  {strconv.Itoa(max(count, 5))},
		"tweet.fields": {"author_id,created_at,entities"},
		"expansions":   {"author_id"},
		"user.fields":  {"username"},
	}

	return connections.ExecuteWithRetry("twitter.read-timeline", c.retry, c.state, nil, func() ([]connections.Post, error) {
		var resp timelineResponse
		path := "/2/users/" + c.userID + "/timelines/reverse_chronological"
		if err := c.get(ctx, path, query, &resp); err != nil {
			return nil, err
		}
		posts := resp.posts()
		if len(posts) > count {
			posts = posts[:count]
		}
		return posts, nil
	})
}

// Post publishes a tweet.
func (c *Connection) Post(ctx context.Context, text string) (connections.Post, error) {
	if err := validateTweet(text); err != nil {
		return connections.Post{}, err
	}
	return c.createTweet(ctx, "twitter.post-tweet", map[string]any{"text": text})
}

// PostWithMedia downloads the image at mediaURL, uploads it and publishes a
// tweet referencing it.
func (c *Connection) PostWithMedia(ctx context.Context, text, mediaURL string) (connections.Post, error) {
	if err := validateTweet(text); err != nil {
		return connections.Post{}, err
	}
	if mediaURL == "" {
		return connections.Post{}, &connections.ValidationError{Reason: "media url is empty"}
	}

	mediaID, err := connections.ExecuteWithRetry("twitter.upload-media", c.retry, c.state, nil, func() (string, error) {
		return c.uploadMedia(ctx, mediaURL)
	})
	if err != nil {
		return connections.Post{}, err
	}

	return c.createTweet(ctx, "twitter.post-tweet-with-media", map[string]any{
		"text":  text,
		"media": map[string]any{"media_ids": []string{mediaID}},
	})
}

// Reply posts a reply under the given tweet.
func (c *Connection) Reply(ctx context.Context, postID, text string) (connections.Post, error) {
	if err := validateTweet(text); err != nil {
		return connections.Post{}, err
	}
	if postID == "" {
		return connections.Post{}, &connections.ValidationError{Reason: "tweet id is empty"}
	}
	return c.createTweet(ctx, "twitter.reply-to-tweet", map[string]any{
		"text":  text,
		"reply": map[string]any{"in_reply_to_tweet_id": postID},
	})
}

// Like marks the tweet as liked by the authenticated user.
func (c *Connection) Like(ctx context.Context, postID string) (bool, error) {
	if postID == "" {
		return false, &connections.ValidationError{Reason: "tweet id is empty"}
	}
	return connections.ExecuteWithRetry("twitter.like-tweet", c.retry, c.state, nil, func() (bool, error) {
		var resp struct {
			Data struct {
				Liked bool `json:"liked"`
			} `json:"data"`
		}
		body := map[string]any{"tweet_id": postID}
		if err := c.post(ctx, "/2/users/"+c.userID+"/likes", body, &resp); err != nil {
			return false, err
		}
		return resp.Data.Liked, nil
	})
}

// Replies fetches replies in the tweet's conversation, newest first.
func (c *Connection) Replies(ctx context.Context, postID string, count int) ([]connections.Post, error) {
	if postID == "" {
		return nil, &connections.ValidationError{Reason: "tweet id is empty"}
	}
	if count <= 0 {
		count = 10
	}
	query := url.Values{
		"query":        {"conversation_id:" + postID},
		"max_results":  {strconv.Itoa(max(count, 10))},
		"tweet.fields": {"author_id,created_at,entities"},
		"expansions":   {"author_id"},
		"user.fields":  {"username"},
	}

	return connections.ExecuteWithRetry("twitter.get-tweet-replies", c.retry, c.state, nil, func() ([]connections.Post, error) {
		var resp timelineResponse
		if err := c.get(ctx, "/2/tweets/search/recent", query, &resp); err != nil {
			return nil, err
		}
		posts := resp.posts()
		if len(posts) > count {
			posts = posts[:count]
		}
		return posts, nil
	})
}

func validateTweet(text string) error {
	if text == "" {
		return &connections.ValidationError{Reason: "tweet text is empty"}
	}
	if n := utf8.RuneCountInString(text); n > maxTweetLength {
		return &connections.ValidationError{
			Reason: fmt.Sprintf("tweet is %d characters, limit is %d", n, maxTweetLength),
		}
	}
	return nil
}

func (c *Connection) createTweet(ctx context.Context, op string, body map[string]any) (connections.Post, error) {
	return connections.ExecuteWithRetry(op, c.retry, c.state, nil, func() (connections.Post, error) {
		var resp struct {
			Data struct {
				ID   string `json:"id"`
				Text string `json:"text"`
			} `json:"data"`
		}
		if err := c.post(ctx, "/2/tweets", body, &resp); err != nil {
			return connections.Post{}, err
		}
		return connections.Post{
			ID:             resp.Data.ID,
			Text:           resp.Data.Text,
			AuthorID:       c.userID,
			AuthorUsername: c.username,
			CreatedAt:      time.Now(),
		}, nil
	})
}

// uploadMedia pulls the image bytes and pushes them to the v1.1 upload
// endpoint, returning the media id string.
func (c *Connection) uploadMedia(ctx context.Context, mediaURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return "", &connections.ValidationError{Reason: "bad media url: " + err.Error()}
	}
	imgResp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", &connections.ProviderError{Provider: "twitter", Err: fmt.Errorf("fetch media: %w", err)}
	}
	defer imgResp.Body.Close()
	if imgResp.StatusCode != http.StatusOK {
		return "", &connections.ProviderError{Provider: "twitter", Err: fmt.Errorf("fetch media: status %d", imgResp.StatusCode)}
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("media", "media")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, imgResp.Body); err != nil {
		return "", &connections.ProviderError{Provider: "twitter", Err: fmt.Errorf("read media: %w", err)}
	}
	w.Close()

	if err := c.throttle(ctx); err != nil {
		return "", err
	}
	upReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadBase+"/1.1/media/upload.json", &buf)
	if err != nil {
		return "", err
	}
	upReq.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.client.Do(upReq)
	if err != nil {
		return "", &connections.ProviderError{Provider: "twitter", Err: err}
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return "", err
	}

	var uploaded struct {
		MediaIDString string `json:"media_id_string"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&uploaded); err != nil {
		return "", &connections.ProviderError{Provider: "twitter", Err: fmt.Errorf("decode upload response: %w", err)}
	}
	return uploaded.MediaIDString, nil
}

// throttle applies both the per-minute window and the burst spacing.
// Returns the context's error if it is cancelled while waiting.
func (c *Connection) throttle(ctx context.Context) error {
	c.limiter.Wait()
	return c.burst.Wait(ctx)
}

func (c *Connection) get(ctx context.Context, path string, query url.Values, out any) error {
	if err := c.throttle(ctx); err != nil {
		return err
	}
	u := c.apiBase + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Connection) post(ctx context.Context, path string, body any, out any) error {
	if err := c.throttle(ctx); err != nil {
		return err
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBase+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Connection) do(req *http.Request, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return &connections.ProviderError{Provider: "twitter", Err: err}
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &connections.ProviderError{Provider: "twitter", Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// checkStatus maps non-2xx responses to errors. Client errors the API would
// reject identically on every retry become ValidationErrors.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	msg := fmt.Sprintf("status %d: %s", resp.StatusCode, bytes.TrimSpace(detail))

	switch resp.StatusCode {
	case http.StatusBadRequest, http.StatusForbidden, http.StatusUnprocessableEntity:
		return &connections.ValidationError{Reason: msg}
	default:
		return &connections.ProviderError{Provider: "twitter", Err: fmt.Errorf("%s", msg)}
	}
}

// timelineResponse is the shared shape of timeline and search results.
type timelineResponse struct {
	Data []struct {
		ID        string `json:"id"`
		Text      string `json:"text"`
		AuthorID  string `json:"author_id"`
		CreatedAt string `json:"created_at"`
		Entities  struct {
			Mentions []struct {
				Username string `json:"username"`
			} `json:"mentions"`
		} `json:"entities"`
	} `json:"data"`
	Includes struct {
		Users []struct {
			ID       string `json:"id"`
			Username string `json:"username"`
		} `json:"users"`
	} `json:"includes"`
}

func (r *timelineResponse) posts() []connections.Post {
	usernames := make(map[string]string, len(r.Includes.Users))
	for _, u := range r.Includes.Users {
		usernames[u.ID] = u.Username
	}

	posts := make([]connections.Post, 0, len(r.Data))
	for _, t := range r.Data {
		p := connections.Post{
			ID:             t.ID,
			Text:           t.Text,
			AuthorID:       t.AuthorID,
			AuthorUsername: usernames[t.AuthorID],
		}
		if ts, err := time.Parse(time.RFC3339, t.CreatedAt); err == nil {
			p.CreatedAt = ts
		}
		for _, m := range t.Entities.Mentions {
			p.Mentions = append(p.Mentions, m.Username)
		}
		posts = append(posts, p)
	}
	return posts
}

func stringParam(params []any, i int) string {
	if i >= len(params) {
		return ""
	}
	s, _ := params[i].(string)
	return s
}

func intParam(params []any, i, fallback int) int {
	if i < len(params) {
		switch v := params[i].(type) {
		case int:
			return v
		case float64:
			return int(v)
		case string:
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
	}
	return fallback
}
