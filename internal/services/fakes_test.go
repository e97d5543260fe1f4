package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"partymatch/internal/domain"
)

// In-memory fakes shared by the service tests in this package. Each fake
// exposes err knobs so tests can force failure paths.

// fakeEventRepo implements domain.EventRepository.
type fakeEventRepo struct {
	byID map[string]*domain.Event
	err  error // if set, every operation returns this error
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{byID: make(map[string]*domain.Event)}
}

func (f *fakeEventRepo) Create(ctx context.Context, e *domain.Event) error {
	if f.err != nil {
		return f.err
	}
	f.byID[e.ID] = e
	return nil
}

func (f *fakeEventRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	if e, ok := f.byID[id]; ok {
		return e, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeEventRepo) GetByCode(ctx context.Context, code string) (*domain.Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, e := range f.byID {
		if e.EventCode == code {
			return e, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeEventRepo) ListByOwnerID(ctx context.Context, ownerID string, params domain.PaginationParams) ([]*domain.Event, int, error) {
	if f.err != nil {
		return nil, 0, f.err
	}
	var all []*domain.Event
	for _, e := range f.byID {
		if e.OwnerID == ownerID {
			all = append(all, e)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := len(all)
	start := params.Offset()
	if start > total {
		start = total
	}
	end := start + params.Limit()
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func (f *fakeEventRepo) Update(ctx context.Context, eventID string, name, eventType, matchingMode *string, matchesPerGuest *int) (*domain.Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	e, ok := f.byID[eventID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if name != nil {
		e.Name = *name
	}
	if eventType != nil {
		e.EventType = *eventType
	}
	if matchingMode != nil {
		e.MatchingMode = *matchingMode
	}
	if matchesPerGuest != nil {
		e.MatchesPerGuest = *matchesPerGuest
	}
	e.UpdatedAt = time.Now()
	return e, nil
}

func (f *fakeEventRepo) Delete(ctx context.Context, id string) error {
	if f.err != nil {
		return f.err
	}
	if _, ok := f.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeEventRepo) SetMatchesRevealed(ctx context.Context, id string, revealed bool) error {
	if f.err != nil {
		return f.err
	}
	e, ok := f.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	e.MatchesRevealed = revealed
	return nil
}

// fakeGuestRepo implements domain.GuestRepository.
type fakeGuestRepo struct {
	byID map[string]*domain.Guest
	err  error
}

func newFakeGuestRepo() *fakeGuestRepo {
	return &fakeGuestRepo{byID: make(map[string]*domain.Guest)}
}

func (f *fakeGuestRepo) Create(ctx context.Context, g *domain.Guest) error {
	if f.err != nil {
		return f.err
	}
	for _, existing := range f.byID {
		if existing.EventID == g.EventID && existing.Nickname == g.Nickname {
			return domain.ErrNicknameTaken
		}
	}
	f.byID[g.ID] = g
	return nil
}

func (f *fakeGuestRepo) GetByID(ctx context.Context, id string) (*domain.Guest, error) {
	if f.err != nil {
		return nil, f.err
	}
	if g, ok := f.byID[id]; ok {
		return g, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeGuestRepo) ListByEventID(ctx context.Context, eventID string) ([]*domain.Guest, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*domain.Guest
	for _, g := range f.byID {
		if g.EventID == eventID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f *fakeGuestRepo) CountByEventID(ctx context.Context, eventID string) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	n := 0
	for _, g := range f.byID {
		if g.EventID == eventID {
			n++
		}
	}
	return n, nil
}

// fakeQuestionRepo implements domain.QuestionRepository.
type fakeQuestionRepo struct {
	byID map[string]*domain.Question
	err  error
}

func newFakeQuestionRepo() *fakeQuestionRepo {
	return &fakeQuestionRepo{byID: make(map[string]*domain.Question)}
}

func (f *fakeQuestionRepo) Create(ctx context.Context, q *domain.Question) error {
	if f.err != nil {
		return f.err
	}
	f.byID[q.ID] = q
	return nil
}

func (f *fakeQuestionRepo) GetByID(ctx context.Context, id string) (*domain.Question, error) {
	if f.err != nil {
		return nil, f.err
	}
	if q, ok := f.byID[id]; ok {
		return q, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeQuestionRepo) ListByEventID(ctx context.Context, eventID string) ([]*domain.Question, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*domain.Question
	for _, q := range f.byID {
		if q.EventID == eventID {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OrderIndex != out[j].OrderIndex {
			return out[i].OrderIndex < out[j].OrderIndex
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (f *fakeQuestionRepo) CountByEventID(ctx context.Context, eventID string) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	n := 0
	for _, q := range f.byID {
		if q.EventID == eventID {
			n++
		}
	}
	return n, nil
}

func (f *fakeQuestionRepo) Update(ctx context.Context, questionID string, prompt *string, options *[]string, orderIndex *int) (*domain.Question, error) {
	if f.err != nil {
		return nil, f.err
	}
	q, ok := f.byID[questionID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if prompt != nil {
		q.Prompt = *prompt
	}
	if options != nil {
		q.Options = *options
	}
	if orderIndex != nil {
		q.OrderIndex = *orderIndex
	}
	return q, nil
}

func (f *fakeQuestionRepo) Delete(ctx context.Context, id string) error {
	if f.err != nil {
		return f.err
	}
	if _, ok := f.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

// fakeResponseRepo implements domain.ResponseRepository. It resolves event
// membership through the guest repo, like the SQL join it stands in for.
type fakeResponseRepo struct {
	guests *fakeGuestRepo
	byKey  map[string]*domain.Response // guestID + "/" + questionID
	err    error
}

func newFakeResponseRepo(guests *fakeGuestRepo) *fakeResponseRepo {
	return &fakeResponseRepo{
		guests: guests,
		byKey:  make(map[string]*domain.Response),
	}
}

func (f *fakeResponseRepo) Upsert(ctx context.Context, r *domain.Response) error {
	if f.err != nil {
		return f.err
	}
	key := r.GuestID + "/" + r.QuestionID
	if existing, ok := f.byKey[key]; ok {
		existing.Answer = r.Answer
		existing.UpdatedAt = r.UpdatedAt
		*r = *existing
		return nil
	}
	f.byKey[key] = r
	return nil
}

func (f *fakeResponseRepo) ListByGuestID(ctx context.Context, guestID string) ([]*domain.Response, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*domain.Response
	for _, r := range f.byKey {
		if r.GuestID == guestID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionID < out[j].QuestionID })
	return out, nil
}

func (f *fakeResponseRepo) ListByEventID(ctx context.Context, eventID string) ([]*domain.Response, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*domain.Response
	for _, r := range f.byKey {
		if g, ok := f.guests.byID[r.GuestID]; ok && g.EventID == eventID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeResponseRepo) CountRespondentsByEventID(ctx context.Context, eventID string) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	seen := make(map[string]bool)
	for _, r := range f.byKey {
		if g, ok := f.guests.byID[r.GuestID]; ok && g.EventID == eventID {
			seen[r.GuestID] = true
		}
	}
	return len(seen), nil
}

// fakeMatchRepo implements domain.MatchRepository. ReplaceForEvent mirrors
// the SQL transaction: it swaps the match set and flips the event flags in
// one step.
type fakeMatchRepo struct {
	events       *fakeEventRepo
	guests       *fakeGuestRepo
	byID         map[string]*domain.Match
	replaceCalls int
	replaceErr   error
	err          error
}

func newFakeMatchRepo(events *fakeEventRepo, guests *fakeGuestRepo) *fakeMatchRepo {
	return &fakeMatchRepo{
		events: events,
		guests: guests,
		byID:   make(map[string]*domain.Match),
	}
}

func (f *fakeMatchRepo) ReplaceForEvent(ctx context.Context, eventID string, matches []*domain.Match, resetReveal bool) error {
	if f.replaceErr != nil {
		return f.replaceErr
	}
	f.replaceCalls++
	for id, m := range f.byID {
		if m.EventID == eventID {
			delete(f.byID, id)
		}
	}
	for _, m := range matches {
		f.byID[m.ID] = m
	}
	e, ok := f.events.byID[eventID]
	if !ok {
		return domain.ErrNotFound
	}
	e.MatchingCompleted = true
	if resetReveal {
		e.MatchesRevealed = false
	}
	return nil
}

func (f *fakeMatchRepo) eventMatches(eventID string) []*domain.Match {
	var out []*domain.Match
	for _, m := range f.byID {
		if m.EventID == eventID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].GuestAID != out[j].GuestAID {
			return out[i].GuestAID < out[j].GuestAID
		}
		return out[i].GuestBID < out[j].GuestBID
	})
	return out
}

func (f *fakeMatchRepo) ListByEventID(ctx context.Context, eventID string) ([]*domain.EventMatch, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*domain.EventMatch
	for _, m := range f.eventMatches(eventID) {
		em := &domain.EventMatch{
			ID:       m.ID,
			GuestAID: m.GuestAID,
			GuestBID: m.GuestBID,
			Score:    m.Score,
		}
		if g, ok := f.guests.byID[m.GuestAID]; ok {
			em.GuestANickname = g.Nickname
		}
		if g, ok := f.guests.byID[m.GuestBID]; ok {
			em.GuestBNickname = g.Nickname
		}
		out = append(out, em)
	}
	return out, nil
}

func (f *fakeMatchRepo) ListByGuestID(ctx context.Context, eventID, guestID string) ([]*domain.GuestMatch, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*domain.GuestMatch
	for _, m := range f.eventMatches(eventID) {
		var partnerID string
		switch guestID {
		case m.GuestAID:
			partnerID = m.GuestBID
		case m.GuestBID:
			partnerID = m.GuestAID
		default:
			continue
		}
		gm := &domain.GuestMatch{MatchID: m.ID, PartnerID: partnerID, Score: m.Score}
		if g, ok := f.guests.byID[partnerID]; ok {
			gm.PartnerNickname = g.Nickname
		}
		out = append(out, gm)
	}
	return out, nil
}

func (f *fakeMatchRepo) GetByID(ctx context.Context, id string) (*domain.Match, error) {
	if f.err != nil {
		return nil, f.err
	}
	if m, ok := f.byID[id]; ok {
		return m, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeMatchRepo) Exists(ctx context.Context, eventID, guestAID, guestBID string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	for _, m := range f.byID {
		if m.EventID == eventID && m.GuestAID == guestAID && m.GuestBID == guestBID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeMatchRepo) Create(ctx context.Context, m *domain.Match) error {
	if f.err != nil {
		return f.err
	}
	f.byID[m.ID] = m
	return nil
}

func (f *fakeMatchRepo) Delete(ctx context.Context, id string) error {
	if f.err != nil {
		return f.err
	}
	if _, ok := f.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeMatchRepo) CountByEventID(ctx context.Context, eventID string) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	return len(f.eventMatches(eventID)), nil
}

// fakeUserRepo implements domain.UserRepository.
type fakeUserRepo struct {
	byID    map[string]*domain.User
	byEmail map[string]*domain.User
	err     error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byID:    make(map[string]*domain.User),
		byEmail: make(map[string]*domain.User),
	}
}

func (f *fakeUserRepo) Create(ctx context.Context, u *domain.User) error {
	if f.err != nil {
		return f.err
	}
	if _, ok := f.byEmail[u.Email]; ok {
		return domain.ErrDuplicateEmail
	}
	f.byID[u.ID] = u
	f.byEmail[u.Email] = u
	return nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if u, ok := f.byEmail[email]; ok {
		return u, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, domain.ErrNotFound
}

// fakeLoginCodeRepo implements domain.LoginCodeRepository.
type fakeLoginCodeRepo struct {
	codes      map[string]time.Time // email + "/" + codeHash -> expiresAt
	createErr  error
	consumeErr error
}

func newFakeLoginCodeRepo() *fakeLoginCodeRepo {
	return &fakeLoginCodeRepo{codes: make(map[string]time.Time)}
}

func (f *fakeLoginCodeRepo) Create(ctx context.Context, email, codeHash string, expiresAt time.Time) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.codes[email+"/"+codeHash] = expiresAt
	return nil
}

func (f *fakeLoginCodeRepo) Consume(ctx context.Context, email, codeHash string) (bool, error) {
	if f.consumeErr != nil {
		return false, f.consumeErr
	}
	key := email + "/" + codeHash
	expiresAt, ok := f.codes[key]
	if !ok || time.Now().After(expiresAt) {
		return false, nil
	}
	delete(f.codes, key)
	return true, nil
}

// fakePasswordHasher implements domain.PasswordHasher.
type fakePasswordHasher struct {
	saltErr error
	hashErr error
}

func (f *fakePasswordHasher) GenerateSalt() (string, error) {
	if f.saltErr != nil {
		return "", f.saltErr
	}
	return "salt", nil
}

func (f *fakePasswordHasher) Hash(salt, password string) (string, error) {
	if f.hashErr != nil {
		return "", f.hashErr
	}
	return "hash-" + salt + "-" + password, nil
}

func (f *fakePasswordHasher) Compare(hash, salt, password string) error {
	if hash != "hash-"+salt+"-"+password {
		return errors.New("mismatch")
	}
	return nil
}

// fakeTokenIssuer implements domain.TokenIssuer.
type fakeTokenIssuer struct {
	err error
}

func (f *fakeTokenIssuer) Issue(userID, email string, roles []string, expiry time.Duration) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "token-" + userID, nil
}

// fakeEmailService implements domain.EmailService.
type fakeEmailService struct {
	welcomeErr   error
	loginCodeErr error
	sentWelcome  []*domain.WelcomeEmailData
	sentCodes    []*domain.LoginCodeEmailData
}

func (f *fakeEmailService) SendWelcome(ctx context.Context, data *domain.WelcomeEmailData) error {
	if f.welcomeErr != nil {
		return f.welcomeErr
	}
	f.sentWelcome = append(f.sentWelcome, data)
	return nil
}

func (f *fakeEmailService) SendLoginCode(ctx context.Context, data *domain.LoginCodeEmailData) error {
	if f.loginCodeErr != nil {
		return f.loginCodeErr
	}
	f.sentCodes = append(f.sentCodes, data)
	return nil
}

// serviceFixture wires the event-side fakes together with the
// cross-references they need (responses resolve event membership through
// guests, matches flip flags on events).
type serviceFixture struct {
	events    *fakeEventRepo
	guests    *fakeGuestRepo
	questions *fakeQuestionRepo
	responses *fakeResponseRepo
	matches   *fakeMatchRepo
}

func newServiceFixture() *serviceFixture {
	events := newFakeEventRepo()
	guests := newFakeGuestRepo()
	return &serviceFixture{
		events:    events,
		guests:    guests,
		questions: newFakeQuestionRepo(),
		responses: newFakeResponseRepo(guests),
		matches:   newFakeMatchRepo(events, guests),
	}
}

func (f *serviceFixture) eventService() domain.EventService {
	return NewEventService(f.events, f.guests, f.questions, f.responses, f.matches, 2*time.Second)
}

func (f *serviceFixture) guestService() domain.GuestService {
	return NewGuestService(f.guests, f.events, 2*time.Second)
}

func (f *serviceFixture) questionService() domain.QuestionService {
	return NewQuestionService(f.questions, f.events, 2*time.Second)
}

func (f *serviceFixture) responseService() domain.ResponseService {
	return NewResponseService(f.responses, f.guests, f.questions, 2*time.Second)
}

func (f *serviceFixture) matchingService(resetReveal bool) domain.MatchingService {
	return NewMatchingService(f.events, f.guests, f.responses, f.matches, NewAgreementScorer(), resetReveal, 2*time.Second)
}

func (f *serviceFixture) addEvent(id, ownerID, mode string, matchesPerGuest int) *domain.Event {
	e := &domain.Event{
		ID:              id,
		OwnerID:         ownerID,
		Name:            "Test Party",
		EventCode:       strings.ToUpper(id),
		EventType:       domain.EventTypeParty,
		MatchingMode:    mode,
		MatchesPerGuest: matchesPerGuest,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
	f.events.byID[e.ID] = e
	return e
}

func (f *serviceFixture) addGuest(id, eventID, nickname, gender, lookingFor string) *domain.Guest {
	g := &domain.Guest{
		ID:         id,
		EventID:    eventID,
		Nickname:   nickname,
		Gender:     gender,
		LookingFor: lookingFor,
		CreatedAt:  time.Now(),
	}
	f.guests.byID[g.ID] = g
	return g
}

func (f *serviceFixture) addQuestion(id, eventID, prompt, questionType string, options []string, orderIndex int) *domain.Question {
	q := &domain.Question{
		ID:         id,
		EventID:    eventID,
		Prompt:     prompt,
		Type:       questionType,
		Options:    options,
		OrderIndex: orderIndex,
		CreatedAt:  time.Now(),
	}
	f.questions.byID[q.ID] = q
	return q
}

func (f *serviceFixture) addResponse(guestID, questionID, answer string) {
	f.responses.byKey[guestID+"/"+questionID] = &domain.Response{
		ID:         guestID + "-" + questionID,
		GuestID:    guestID,
		QuestionID: questionID,
		Answer:     answer,
	}
}
