// Package coordinator drives one import cycle: extract a record from the
// current page, check whether the library already holds it, and import it on
// request. State changes go through the pure functions in transitions.go;
// Coordinator adds the session, the network calls and the notifications.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/mrlokans/jelu-importer/internal/audit"
	"github.com/mrlokans/jelu-importer/internal/entities"
	"github.com/mrlokans/jelu-importer/internal/extractor"
	"github.com/mrlokans/jelu-importer/internal/jelu"
	"github.com/mrlokans/jelu-importer/internal/notify"
	"github.com/mrlokans/jelu-importer/internal/page"
	"github.com/mrlokans/jelu-importer/internal/sessionstore"
)

var (
	ErrNotProviderPage   = errors.New("not an Audible page")
	ErrNoRecord          = errors.New("no book data available")
	ErrNotConnected      = errors.New("not connected to the library")
	ErrMissingFields     = errors.New("url, username and password are required")
	ErrConnectionFailed  = errors.New("failed to connect to the library")
	ErrActionUnavailable = errors.New("action not available in the current state")
	ErrNoRemoteBook      = errors.New("no imported book to open")
)

// Scraper produces the record for the page at a URL, or nil when there is none.
type Scraper interface {
	Scrape(ctx context.Context, rawURL string) (*entities.BookRecord, error)
}

// Library is the remote library as seen by the coordinator.
type Library interface {
	BaseURL() string
	Token() string
	TestConnection(ctx context.Context) bool
	FindExisting(ctx context.Context, asin string) (*entities.ExistingBook, error)
	ImportRecord(ctx context.Context, record entities.BookRecord) (*entities.ImportedBook, error)
	BookURL(id string) string
}

// Connector builds a library client for a server and credential.
type Connector func(baseURL string, mode jelu.AuthMode) Library

// SessionStore persists the library session between runs.
type SessionStore interface {
	Load() (sessionstore.Session, error)
	Save(session sessionstore.Session) error
	Remove(keys ...string) error
}

// ImportAuditor records every import attempt.
type ImportAuditor interface {
	RecordImport(entry audit.ImportEntry) (string, error)
}

// SessionInfo describes the live session without exposing credentials.
type SessionInfo struct {
	ServiceURL string `json:"service_url"`
	Username   string `json:"username"`
}

type session struct {
	info      SessionInfo
	library   Library
	lastToken string

	// ops serialises calls on library. A connection test may swap the
	// client's credential and must not overlap a lookup or an import.
	ops sync.Mutex
}

// Coordinator owns the import state and the library session. It is safe for
// concurrent use.
type Coordinator struct {
	scraper  Scraper
	connect  Connector
	store    SessionStore
	notifier notify.Notifier
	auditor  ImportAuditor
	log      logrus.FieldLogger
	observer func(State)

	// sessionMu serialises login, logout, restore and revalidation.
	sessionMu sync.Mutex

	mu      sync.Mutex
	state   State
	session *session
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithSessionStore persists sessions in store. Without one, sessions last
// only as long as the process.
func WithSessionStore(store SessionStore) Option {
	return func(c *Coordinator) { c.store = store }
}

// WithNotifier sends status messages to n instead of discarding them.
func WithNotifier(n notify.Notifier) Option {
	return func(c *Coordinator) {
		if n != nil {
			c.notifier = n
		}
	}
}

// WithAuditor records import attempts with a.
func WithAuditor(a ImportAuditor) Option {
	return func(c *Coordinator) { c.auditor = a }
}

// WithLogger sets the logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Coordinator) {
		if log != nil {
			c.log = log
		}
	}
}

// WithObserver registers fn to see every state the coordinator enters, in
// order. fn runs with the state lock held and must not call back into the
// coordinator.
func WithObserver(fn func(State)) Option {
	return func(c *Coordinator) { c.observer = fn }
}

// New creates a Coordinator in the NoBook state with no session. connect
// builds the library client on login and session restore.
func New(scraper Scraper, connect Connector, opts ...Option) *Coordinator {
	c := &Coordinator{
		scraper:  scraper,
		connect:  connect,
		notifier: notify.Discard{},
		log:      logrus.StandardLogger(),
		state:    Initial(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns a copy of the current state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Session returns the live session, if any.
func (c *Coordinator) Session() (SessionInfo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return SessionInfo{}, false
	}
	return c.session.info, true
}

// applyLocked must be called with c.mu held.
func (c *Coordinator) applyLocked(next State) {
	c.state = next
	if c.observer != nil {
		c.observer(next.clone())
	}
}

func (c *Coordinator) notify(message string, severity notify.Severity) {
	c.notifier.Notify(message, severity)
}

// Navigate reacts to the active page changing. Pages that cannot carry a
// record reset the coordinator; product pages start a new extraction cycle.
func (c *Coordinator) Navigate(ctx context.Context, rawURL string) (State, error) {
	if page.IsProviderHost(rawURL) && extractor.IsProductPage(pathOf(rawURL)) {
		return c.Scrape(ctx, rawURL)
	}

	c.mu.Lock()
	c.applyLocked(Reset(c.state))
	s := c.state.clone()
	c.mu.Unlock()
	return s, nil
}

// Scrape runs an extraction cycle for rawURL. A newer cycle started while
// this one is in flight wins; this cycle's result is then dropped.
func (c *Coordinator) Scrape(ctx context.Context, rawURL string) (State, error) {
	if !page.IsProviderHost(rawURL) {
		c.notify("Please navigate to an Audible book page first.", notify.SeverityError)
		return c.State(), ErrNotProviderPage
	}

	c.mu.Lock()
	c.applyLocked(StartCycle(c.state))
	cycle := c.state.Cycle
	c.mu.Unlock()

	c.notify("Scraping book data...", notify.SeverityInfo)
	record, err := c.scraper.Scrape(ctx, rawURL)

	c.mu.Lock()
	if c.state.Cycle != cycle {
		c.mu.Unlock()
		c.log.WithField("url", rawURL).Debug("Dropping stale extraction result")
		return c.State(), nil
	}

	if err != nil || record == nil {
		c.applyLocked(OnExtractionFailed(c.state))
		s := c.state.clone()
		c.mu.Unlock()

		if err != nil {
			c.log.WithError(err).WithField("url", rawURL).Warn("Scrape failed")
			c.notify("Error scraping book data. Make sure you're on an Audible book page.", notify.SeverityError)
			return s, fmt.Errorf("scrape failed: %w", err)
		}
		c.notify("No book data found on this page.", notify.SeverityError)
		return s, nil
	}

	c.applyLocked(OnExtracted(c.state, *record))
	c.applyLocked(AfterExtracted(c.state))
	s := c.state.clone()
	sess := c.session
	c.mu.Unlock()

	if s.Phase == PhaseCheckingDuplicate && sess != nil {
		return c.checkDuplicate(ctx, s, sess, "Book data scraped successfully!"), nil
	}

	c.notify("Book data scraped successfully!", notify.SeveritySuccess)
	return s, nil
}

// checkDuplicate resolves a CheckingDuplicate state. missMessage is shown when
// the record is not in the library yet.
func (c *Coordinator) checkDuplicate(ctx context.Context, s State, sess *session, missMessage string) State {
	c.notify("Checking if book already exists...", notify.SeverityInfo)

	sess.ops.Lock()
	existing, err := sess.library.FindExisting(ctx, s.Record.ID)
	sess.ops.Unlock()
	if err != nil {
		c.log.WithError(err).WithField("asin", s.Record.ID).Warn("Duplicate check failed, treating book as not imported")
	}

	c.mu.Lock()
	if !c.currentLocked(s.Cycle, s.Record.ID) {
		c.mu.Unlock()
		return c.State()
	}
	c.applyLocked(OnDuplicateChecked(c.state, existing, err))
	next := c.state.clone()
	c.mu.Unlock()

	if next.Phase == PhaseAlreadyImported {
		c.notify("Book already in your Jelu library!", notify.SeveritySuccess)
	} else {
		c.notify(missMessage, notify.SeveritySuccess)
	}
	return next
}

// Import sends the current record to the library. On failure the record is
// kept and the import may be retried.
func (c *Coordinator) Import(ctx context.Context) (State, error) {
	c.mu.Lock()
	s := c.state
	switch {
	case s.Record == nil:
		c.mu.Unlock()
		c.notify("No book data available.", notify.SeverityError)
		return c.State(), ErrNoRecord
	case c.session == nil || !s.Connected:
		c.mu.Unlock()
		c.notify("Please connect to Jelu first.", notify.SeverityError)
		return c.State(), ErrNotConnected
	case !s.Allows(ActionImport):
		c.mu.Unlock()
		return c.State(), ErrActionUnavailable
	}

	c.applyLocked(OnImportStarted(s))
	cycle := c.state.Cycle
	record := c.state.Record.Clone()
	sess := c.session
	c.mu.Unlock()

	c.notify("Importing book to Jelu...", notify.SeverityInfo)
	sess.ops.Lock()
	imported, err := sess.library.ImportRecord(ctx, record)
	sess.ops.Unlock()
	c.recordAudit(sess.info.ServiceURL, record, imported, err)

	c.mu.Lock()
	if !c.currentLocked(cycle, record.ID) {
		c.mu.Unlock()
		c.log.WithField("asin", record.ID).Debug("Dropping stale import result")
		return c.State(), nil
	}

	if err != nil {
		c.applyLocked(OnImportFailed(c.state, err.Error()))
		next := c.state.clone()
		c.mu.Unlock()

		c.log.WithError(err).WithField("asin", record.ID).Error("Import failed")
		c.notify("Import failed: "+err.Error(), notify.SeverityError)
		return next, fmt.Errorf("import failed: %w", err)
	}

	c.applyLocked(OnImportSucceeded(c.state, *imported))
	next := c.state.clone()
	c.mu.Unlock()

	c.notify(fmt.Sprintf("Successfully imported \"%s\" to Jelu!", record.Title), notify.SeveritySuccess)
	return next, nil
}

// currentLocked reports whether a result computed for record id in cycle
// still belongs to the current state. It must be called with c.mu held.
func (c *Coordinator) currentLocked(cycle uint64, id string) bool {
	return c.state.Cycle == cycle && c.state.Record != nil && c.state.Record.ID == id
}

func (c *Coordinator) recordAudit(serviceURL string, record entities.BookRecord, imported *entities.ImportedBook, importErr error) {
	if c.auditor == nil {
		return
	}

	entry := audit.ImportEntry{
		ServiceURL: serviceURL,
		ASIN:       record.ID,
		SourceURL:  record.SourceURL,
		Outcome:    audit.OutcomeImported,
		Payload:    jelu.BuildPayload(record),
	}
	if importErr != nil {
		entry.Outcome = audit.OutcomeFailed
		entry.Error = importErr.Error()
	} else if imported != nil {
		entry.UserBookID = imported.ID
		entry.CoverStored = imported.CoverStored
	}

	if _, err := c.auditor.RecordImport(entry); err != nil {
		c.log.WithError(err).Warn("Failed to write import audit entry")
	}
}

// View returns the library page of the imported or already present book.
// It performs no network call.
func (c *Coordinator) View() (string, error) {
	c.mu.Lock()
	if c.session == nil || !c.state.Allows(ActionView) {
		c.mu.Unlock()
		c.notify("No imported book to open.", notify.SeverityError)
		return "", ErrNoRemoteBook
	}
	link := c.session.library.BookURL(c.state.RemoteID)
	c.mu.Unlock()
	return link, nil
}

// Login connects with basic credentials, obtains a token and persists the
// session (never the password).
func (c *Coordinator) Login(ctx context.Context, serviceURL, username, password string) (State, error) {
	serviceURL = strings.TrimSpace(serviceURL)
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)
	if serviceURL == "" || username == "" || password == "" {
		c.notify("Please fill in all Jelu connection fields.", notify.SeverityError)
		return c.State(), ErrMissingFields
	}

	c.sessionMu.Lock()
	defer c.sessionMu.Unlock()

	c.notify("Connecting to Jelu...", notify.SeverityInfo)
	lib := c.connect(serviceURL, jelu.Basic{Username: username, Password: password})
	if !lib.TestConnection(ctx) {
		c.notify("Failed to connect to Jelu. Check your credentials and URL.", notify.SeverityError)
		return c.State(), ErrConnectionFailed
	}

	sess := &session{
		info:      SessionInfo{ServiceURL: lib.BaseURL(), Username: username},
		library:   lib,
		lastToken: lib.Token(),
	}
	c.persist(sess)

	s := c.install(sess)
	c.notify("Successfully connected to Jelu!", notify.SeveritySuccess)
	return c.continueCheck(ctx, s, sess), nil
}

// RestoreSession reconnects with a persisted token. An expired token is
// removed from the store. It reports whether a session is now live.
func (c *Coordinator) RestoreSession(ctx context.Context) (bool, error) {
	if c.store == nil {
		return false, nil
	}

	saved, err := c.store.Load()
	if err != nil {
		return false, fmt.Errorf("failed to load saved session: %w", err)
	}
	if !saved.Complete() {
		return false, nil
	}

	c.sessionMu.Lock()
	defer c.sessionMu.Unlock()

	c.notify("Checking saved session...", notify.SeverityInfo)
	lib := c.connect(saved.ServiceURL, jelu.Token{Value: saved.Token})
	if !lib.TestConnection(ctx) {
		if err := c.store.Remove(entities.SettingKeyToken); err != nil {
			c.log.WithError(err).Warn("Failed to remove expired token")
		}
		c.notify("Saved session expired. Please login again.", notify.SeverityInfo)
		return false, nil
	}

	sess := &session{
		info:      SessionInfo{ServiceURL: lib.BaseURL(), Username: saved.Username},
		library:   lib,
		lastToken: saved.Token,
	}
	if lib.Token() != saved.Token {
		sess.lastToken = lib.Token()
		c.persist(sess)
	}

	s := c.install(sess)
	c.notify("Automatically connected using saved session!", notify.SeveritySuccess)
	c.continueCheck(ctx, s, sess)
	return true, nil
}

// Logout drops the session and the stored token and resets to NoBook. The
// server URL and username stay stored for the next login.
func (c *Coordinator) Logout(ctx context.Context) (State, error) {
	c.sessionMu.Lock()
	defer c.sessionMu.Unlock()

	c.mu.Lock()
	c.session = nil
	next := Reset(c.state)
	next.Connected = false
	c.applyLocked(next)
	s := c.state.clone()
	c.mu.Unlock()

	var err error
	if c.store != nil {
		if err = c.store.Remove(entities.SettingKeyToken); err != nil {
			c.log.WithError(err).Warn("Failed to remove stored token")
		}
	}

	c.notify("Disconnected from Jelu.", notify.SeverityInfo)
	return s, err
}

// Revalidate tests the live session. A refreshed token is persisted; a
// session the server no longer accepts is dropped.
func (c *Coordinator) Revalidate(ctx context.Context) error {
	c.sessionMu.Lock()
	defer c.sessionMu.Unlock()

	c.mu.Lock()
	sess := c.session
	c.mu.Unlock()
	if sess == nil {
		return nil
	}

	sess.ops.Lock()
	ok := sess.library.TestConnection(ctx)
	token := sess.library.Token()
	sess.ops.Unlock()
	if ok {
		if token != sess.lastToken {
			sess.lastToken = token
			c.persist(sess)
		}
		return nil
	}

	c.mu.Lock()
	if c.session == sess {
		c.session = nil
		c.applyLocked(OnSessionChanged(c.state, false))
	}
	c.mu.Unlock()

	if c.store != nil {
		if err := c.store.Remove(entities.SettingKeyToken); err != nil {
			c.log.WithError(err).Warn("Failed to remove expired token")
		}
	}
	c.notify("Saved session expired. Please login again.", notify.SeverityInfo)
	return ErrConnectionFailed
}

func (c *Coordinator) install(sess *session) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = sess
	c.applyLocked(OnSessionChanged(c.state, true))
	return c.state.clone()
}

// continueCheck runs the duplicate check a new session made necessary.
func (c *Coordinator) continueCheck(ctx context.Context, s State, sess *session) State {
	if s.Phase != PhaseCheckingDuplicate {
		return s
	}
	return c.checkDuplicate(ctx, s, sess, "Ready to import.")
}

func (c *Coordinator) persist(sess *session) {
	if c.store == nil {
		return
	}
	err := c.store.Save(sessionstore.Session{
		ServiceURL: sess.info.ServiceURL,
		Username:   sess.info.Username,
		Token:      sess.lastToken,
	})
	if err != nil {
		c.log.WithError(err).Warn("Failed to persist session")
	}
}

func pathOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Path
}
