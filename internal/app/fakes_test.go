package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pscheid92/countbot/internal/domain"
)

type fakeAccounts struct {
	mu        sync.Mutex
	accounts  map[string]domain.Account
	getErr    error
	upsertErr error

	decayCutoff time.Time
	decayResult int64
	decayErr    error
	applyDecay  bool
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{accounts: make(map[string]domain.Account)}
}

func (f *fakeAccounts) GetOrCreate(_ context.Context, userID string, now time.Time) (*domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	acct, ok := f.accounts[userID]
	if !ok {
		acct = domain.NewAccount(userID, now)
		f.accounts[userID] = acct
	}
	return &acct, nil
}

func (f *fakeAccounts) Get(_ context.Context, userID string) (*domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	acct, ok := f.accounts[userID]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return &acct, nil
}

func (f *fakeAccounts) Upsert(_ context.Context, acct domain.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.accounts[acct.UserID] = acct
	return nil
}

func (f *fakeAccounts) DecayInactive(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.decayCutoff = cutoff
	if !f.applyDecay || f.decayErr != nil {
		return f.decayResult, f.decayErr
	}
	var n int64
	for id, acct := range f.accounts {
		if acct.LastCollected.Before(cutoff) && acct.Saves > 0 {
			acct.Saves--
			f.accounts[id] = acct
			n++
		}
	}
	return n, nil
}

func (f *fakeAccounts) put(acct domain.Account) {
	f.mu.Lock()
	f.accounts[acct.UserID] = acct
	f.mu.Unlock()
}

func (f *fakeAccounts) get(userID string) domain.Account {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.accounts[userID]
}

// fakeGames writes state and account rows together, like the real transaction.
type fakeGames struct {
	mu        sync.Mutex
	state     domain.GameState
	accounts  *fakeAccounts
	commits   []domain.Transition
	commitErr error
	loadErr   error

	beforeCommit func()
}

func newFakeGames(accounts *fakeAccounts) *fakeGames {
	return &fakeGames{state: domain.NewGameState(), accounts: accounts}
}

func (f *fakeGames) LoadGame(_ context.Context) (domain.GameState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state, f.loadErr
}

func (f *fakeGames) Commit(_ context.Context, t domain.Transition) error {
	if f.beforeCommit != nil {
		f.beforeCommit()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.commitErr != nil {
		return f.commitErr
	}
	f.commits = append(f.commits, t)
	if t.State != nil {
		channel := f.state.ChannelID
		f.state = *t.State
		f.state.ChannelID = channel
	}
	if t.Account != nil {
		f.accounts.put(*t.Account)
	}
	return nil
}

func (f *fakeGames) SetChannel(_ context.Context, channelID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.commitErr != nil {
		return f.commitErr
	}
	f.state.ChannelID = channelID
	return nil
}

type fakeResponder struct {
	mu        sync.Mutex
	reactions []string
	replies   []string
	err       error
}

func (f *fakeResponder) React(_ context.Context, _, _, emoji string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reactions = append(f.reactions, emoji)
	return f.err
}

func (f *fakeResponder) Reply(_ context.Context, _, _, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies = append(f.replies, text)
	return f.err
}

func (f *fakeResponder) reset() {
	f.mu.Lock()
	f.reactions, f.replies = nil, nil
	f.mu.Unlock()
}

type fakeRoles struct {
	mu      sync.Mutex
	added   []string
	removed []string
	err     error
}

func (f *fakeRoles) AddRole(_ context.Context, _, userID, roleID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.added = append(f.added, userID+":"+roleID)
	return nil
}

func (f *fakeRoles) RemoveRole(_ context.Context, _, userID, roleID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.removed = append(f.removed, userID+":"+roleID)
	return nil
}

type badCounterCall struct {
	User     domain.UserRef
	Lockouts int
}

type fakeBadCounterLog struct {
	calls []badCounterCall
}

func (f *fakeBadCounterLog) BadCounter(_ context.Context, user domain.UserRef, _ string, lockouts int, _ time.Time) {
	f.calls = append(f.calls, badCounterCall{User: user, Lockouts: lockouts})
}

type sentNotification struct {
	ChannelID string
	N         domain.Notification
}

type fakeSender struct {
	mu      sync.Mutex
	sent    []sentNotification
	edits   []string
	texts   []string
	files   [][]domain.Attachment
	nextID  int
	sendErr error
	editErr error
}

func (f *fakeSender) Send(_ context.Context, channelID string, n domain.Notification) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return "", f.sendErr
	}
	f.sent = append(f.sent, sentNotification{ChannelID: channelID, N: n})
	f.nextID++
	return fmt.Sprintf("msg-%d", f.nextID), nil
}

func (f *fakeSender) Edit(_ context.Context, _, messageID string, _ domain.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.editErr != nil {
		return f.editErr
	}
	f.edits = append(f.edits, messageID)
	return nil
}

func (f *fakeSender) SendText(_ context.Context, _, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	return nil
}

func (f *fakeSender) SendFiles(_ context.Context, _ string, files []domain.Attachment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files = append(f.files, files)
	return nil
}

func (f *fakeSender) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type fakeStateStore struct {
	mu     sync.Mutex
	values map[string]string
	setErr error
}

func newFakeStateStore() *fakeStateStore {
	return &fakeStateStore{values: make(map[string]string)}
}

func (f *fakeStateStore) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[key]
	if !ok {
		return "", domain.ErrStateNotFound
	}
	return v, nil
}

func (f *fakeStateStore) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.values[key] = value
	return nil
}

type recordingObserver struct {
	mu            sync.Mutex
	verdicts      []domain.Verdict
	claims        []domain.ClaimResult
	alerts        int
	notifications map[string]int
	failures      int
	decayed       []int64
	errs          []string
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{notifications: make(map[string]int)}
}

func (o *recordingObserver) OnJudgement(j domain.Judgement) {
	o.mu.Lock()
	o.verdicts = append(o.verdicts, j.Verdict)
	o.mu.Unlock()
}

func (o *recordingObserver) OnClaim(r domain.ClaimResult) {
	o.mu.Lock()
	o.claims = append(o.claims, r)
	o.mu.Unlock()
}

func (o *recordingObserver) OnPingAlert() {
	o.mu.Lock()
	o.alerts++
	o.mu.Unlock()
}

func (o *recordingObserver) OnNotification(kind string, err error) {
	o.mu.Lock()
	o.notifications[kind]++
	if err != nil {
		o.failures++
	}
	o.mu.Unlock()
}

func (o *recordingObserver) OnDecay(n int64) {
	o.mu.Lock()
	o.decayed = append(o.decayed, n)
	o.mu.Unlock()
}

func (o *recordingObserver) RecordError(_ context.Context, source string, err error) {
	o.mu.Lock()
	o.errs = append(o.errs, source+": "+err.Error())
	o.mu.Unlock()
}
