package mail

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
)

var ErrInvalidInput = errors.New("mail: invalid input")

// Message is a flattened envelope summary of one mailbox message.
type Message struct {
	From    string    `json:"from"`
	Subject string    `json:"subject"`
	Date    time.Time `json:"date"`
}

// SenderCount pairs a sender address with how many messages it sent.
type SenderCount struct {
	Sender string `json:"sender"`
	Count  int    `json:"count"`
}

// Service polls an IMAP mailbox for summary statistics. Credentials are
// injected at construction from configuration.
type Service struct {
	addr     string
	username string
	password string
	mailbox  string
	dial     func(addr string) (imapClient, error)
}

// imapClient is the slice of the go-imap client the service uses. Narrowed
// to an interface so tests can run without a live server.
type imapClient interface {
	Login(username, password string) error
	Select(name string, readOnly bool) (*imap.MailboxStatus, error)
	Search(criteria *imap.SearchCriteria) ([]uint32, error)
	Fetch(seqset *imap.SeqSet, items []imap.FetchItem, ch chan *imap.Message) error
	Logout() error
}

// NewService builds a mailbox poller for the given IMAP endpoint.
func NewService(addr, username, password string) (*Service, error) {
	addr = strings.TrimSpace(addr)
	username = strings.TrimSpace(username)
	if addr == "" || username == "" {
		return nil, fmt.Errorf("%w: imap address and username are required", ErrInvalidInput)
	}
	return &Service{
		addr:     addr,
		username: username,
		password: password,
		mailbox:  "INBOX",
		dial: func(addr string) (imapClient, error) {
			return client.DialTLS(addr, nil)
		},
	}, nil
}

// Count returns how many messages arrived within the last N days.
func (s *Service) Count(ctx context.Context, days int) (int, error) {
	messages, err := s.fetch(ctx, days)
	if err != nil {
		return 0, err
	}
	return len(messages), nil
}

// UniqueSenders returns per-sender message counts for the last N days,
// ordered by volume.
func (s *Service) UniqueSenders(ctx context.Context, days int) ([]SenderCount, error) {
	messages, err := s.fetch(ctx, days)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for _, m := range messages {
		counts[m.From]++
	}
	out := make([]SenderCount, 0, len(counts))
	for sender, count := range counts {
		out = append(out, SenderCount{Sender: sender, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Sender < out[j].Sender
	})
	return out, nil
}

// Info returns envelope summaries for the last N days.
func (s *Service) Info(ctx context.Context, days int) ([]Message, error) {
	return s.fetch(ctx, days)
}

func (s *Service) fetch(ctx context.Context, days int) ([]Message, error) {
	if days <= 0 {
		return nil, fmt.Errorf("%w: days must be positive", ErrInvalidInput)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c, err := s.dial(s.addr)
	if err != nil {
		return nil, fmt.Errorf("dial imap: %w", err)
	}
	defer func() { _ = c.Logout() }()

	if err := c.Login(s.username, s.password); err != nil {
		return nil, fmt.Errorf("imap login: %w", err)
	}
	if _, err := c.Select(s.mailbox, true); err != nil {
		return nil, fmt.Errorf("select %s: %w", s.mailbox, err)
	}

	criteria := imap.NewSearchCriteria()
	criteria.Since = time.Now().UTC().AddDate(0, 0, -days)
	ids, err := c.Search(criteria)
	if err != nil {
		return nil, fmt.Errorf("imap search: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(ids...)
	ch := make(chan *imap.Message, 16)
	done := make(chan error, 1)
	go func() {
		done <- c.Fetch(seqset, []imap.FetchItem{imap.FetchEnvelope}, ch)
	}()

	var messages []Message
	for msg := range ch {
		if msg == nil || msg.Envelope == nil {
			continue
		}
		messages = append(messages, Message{
			From:    formatSender(msg.Envelope.From),
			Subject: msg.Envelope.Subject,
			Date:    msg.Envelope.Date,
		})
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("imap fetch: %w", err)
	}
	return messages, nil
}

func formatSender(from []*imap.Address) string {
	if len(from) == 0 {
		return ""
	}
	addr := from[0]
	if addr.MailboxName == "" || addr.HostName == "" {
		return addr.PersonalName
	}
	return addr.MailboxName + "@" + addr.HostName
}
