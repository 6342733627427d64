package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session — состояние одного браузерного сеанса: флаг "вошёл как админ"
// и одноразовые flash-сообщения для следующего рендера страницы.
type Session struct {
	Token string

	mu       sync.Mutex
	loggedIn bool
	flash    []string
}

func (s *Session) SetLoggedIn(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loggedIn = v
}

func (s *Session) LoggedIn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loggedIn
}

// AddFlash добавляет сообщение, которое будет показано один раз.
func (s *Session) AddFlash(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flash = append(s.flash, msg)
}

// ConsumeFlash отдаёт накопленные сообщения и очищает их.
func (s *Session) ConsumeFlash() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.flash
	s.flash = nil
	return out
}

type entry struct {
	session  *Session
	lastSeen time.Time
}

// Manager — in-process хранилище сеансов по uuid-токену с TTL.
// Протухшие сеансы вычищаются лениво при обращении. Потокобезопасен.
type Manager struct {
	ttl time.Duration

	mu       sync.Mutex
	sessions map[string]*entry

	// подменяется в тестах
	now func() time.Time
}

func NewManager(ttl time.Duration) *Manager {
	return &Manager{
		ttl:      ttl,
		sessions: make(map[string]*entry),
		now:      time.Now,
	}
}

// Start создаёт новый сеанс со свежим токеном.
func (m *Manager) Start() *Session {
	s := &Session{Token: uuid.NewString()}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.Token] = &entry{session: s, lastSeen: m.now()}
	return s
}

// Get возвращает сеанс по токену или nil, если сеанса нет либо он протух.
// Живой сеанс продлевается.
func (m *Manager) Get(token string) *Session {
	if token == "" {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.sessions[token]
	if !ok {
		return nil
	}
	if m.ttl > 0 && m.now().Sub(e.lastSeen) > m.ttl {
		delete(m.sessions, token)
		return nil
	}

	e.lastSeen = m.now()
	return e.session
}

// Destroy удаляет сеанс. Удаление несуществующего — не ошибка.
func (m *Manager) Destroy(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
}
