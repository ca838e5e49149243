package mail

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

const (
	gmailUser = "me"
	// gmailPageSize is the API's hard cap on messages.list page size.
	gmailPageSize = 500
)

// GmailClient implements Provider on top of the Gmail REST API.
type GmailClient struct {
	svc *gmail.Service
}

// NewGmailClient builds a Gmail-backed provider from an OAuth client secret
// file and a previously saved token. Run `jobtrail init` first to obtain
// the token interactively.
func NewGmailClient(ctx context.Context, credentialsFile, tokenFile string) (*GmailClient, error) {
	oauthConfig, err := oauthConfigFromFile(credentialsFile)
	if err != nil {
		return nil, err
	}
	tok, err := tokenFromFile(tokenFile)
	if err != nil {
		return nil, fmt.Errorf("no saved Gmail token at %s (run `jobtrail init`): %w", tokenFile, err)
	}
	httpClient := oauthConfig.Client(ctx, tok)
	svc, err := gmail.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}
	return &GmailClient{svc: svc}, nil
}

// ListMessageIDs implements Provider.ListMessageIDs. The API serves at
// most gmailPageSize ids per page, so caps above that require following
// page tokens until max is reached or the listing is exhausted.
func (c *GmailClient) ListMessageIDs(ctx context.Context, query string, max int64) ([]string, error) {
	var ids []string
	pageToken := ""
	for int64(len(ids)) < max {
		pageSize := max - int64(len(ids))
		if pageSize > gmailPageSize {
			pageSize = gmailPageSize
		}
		call := c.svc.Users.Messages.List(gmailUser).Q(query).MaxResults(pageSize).Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list messages: %w", err)
		}
		for _, m := range resp.Messages {
			ids = append(ids, m.Id)
			if int64(len(ids)) == max {
				return ids, nil
			}
		}
		if resp.NextPageToken == "" || len(resp.Messages) == 0 {
			break
		}
		pageToken = resp.NextPageToken
	}
	return ids, nil
}

// GetMessage implements Provider.GetMessage.
func (c *GmailClient) GetMessage(ctx context.Context, id string) (*Message, error) {
	m, err := c.svc.Users.Messages.Get(gmailUser, id).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get message %s: %w", id, err)
	}
	msg := &Message{ID: m.Id}
	if m.Payload != nil {
		for _, h := range m.Payload.Headers {
			msg.Headers = append(msg.Headers, Header{Name: h.Name, Value: h.Value})
		}
		msg.Payload = convertPart(m.Payload)
	}
	return msg, nil
}

func convertPart(p *gmail.MessagePart) *Part {
	if p == nil {
		return nil
	}
	part := &Part{MimeType: p.MimeType}
	if p.Body != nil {
		part.Data = p.Body.Data
	}
	for _, child := range p.Parts {
		if converted := convertPart(child); converted != nil {
			part.Parts = append(part.Parts, converted)
		}
	}
	return part
}

func oauthConfigFromFile(credentialsFile string) (*oauth2.Config, error) {
	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read client secret file: %w", err)
	}
	cfg, err := google.ConfigFromJSON(b, gmail.GmailReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret file: %w", err)
	}
	return cfg, nil
}

// Authorize runs the interactive OAuth consent flow and saves the resulting
// token to tokenFile for later runs.
func Authorize(ctx context.Context, credentialsFile, tokenFile string) error {
	oauthConfig, err := oauthConfigFromFile(credentialsFile)
	if err != nil {
		return err
	}
	authURL := oauthConfig.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Printf("Go to the following link in your browser then type the authorization code:\n%v\n", authURL)

	var authCode string
	if _, err := fmt.Scan(&authCode); err != nil {
		return fmt.Errorf("unable to read authorization code: %w", err)
	}
	tok, err := oauthConfig.Exchange(ctx, authCode)
	if err != nil {
		return fmt.Errorf("unable to retrieve token from web: %w", err)
	}
	return saveToken(tokenFile, tok)
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, err
	}
	return tok, nil
}

func saveToken(path string, token *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("unable to save oauth token: %w", err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}

var _ Provider = (*GmailClient)(nil)
