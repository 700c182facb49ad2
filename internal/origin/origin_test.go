package origin

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"Gragolf/internal/kv"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestTokenMaker_RoundTrip(t *testing.T) {
	tm := NewTokenMaker(testSecret, time.Hour)

	tok, id, err := tm.Issue()
	require.NoError(t, err)
	require.NotEmpty(t, id)

	c, err := tm.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, id, c.OriginID)
}

func TestTokenMaker_RejectsExpiredAndForeign(t *testing.T) {
	now := time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)
	tm := NewTokenMaker(testSecret, time.Hour)
	tm.now = func() time.Time { return now }

	tok, err := tm.New("origin-1")
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	_, err = tm.Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := NewTokenMaker("ffffffffffffffffffffffffffffffff", time.Hour)
	tok, err = other.New("origin-2")
	require.NoError(t, err)
	_, err = NewTokenMaker(testSecret, time.Hour).Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthJWT_ScopesStore(t *testing.T) {
	tm := NewTokenMaker(testSecret, time.Hour)
	root := kv.NewStore(kv.NewMemStore(), zap.NewNop())
	tok, id, err := tm.Issue()
	require.NoError(t, err)

	var gotID string
	h := AuthJWT(tm, root)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, _ = IDFromContext(r.Context())
		st, ok := Store(w, r)
		require.True(t, ok)
		require.NoError(t, kv.Set(r.Context(), st, kv.KeyCartCount, 3))
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id, gotID)

	n, err := kv.Get(req.Context(), root.Namespace(id), kv.KeyCartCount, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = kv.Get(req.Context(), root, kv.KeyCartCount, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, n, "root namespace untouched")
}

func TestAuthJWT_MissingToken(t *testing.T) {
	tm := NewTokenMaker(testSecret, time.Hour)
	root := kv.NewStore(kv.NewMemStore(), zap.NewNop())
	h := AuthJWT(tm, root)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Fatal("handler must not run")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/cart", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSerializer_OneRequestPerOrigin(t *testing.T) {
	s := NewSerializer()

	var (
		mu      sync.Mutex
		active  int
		maxSeen int
		wg      sync.WaitGroup
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := s.Lock("origin-1")
			defer unlock()

			mu.Lock()
			active++
			maxSeen = max(maxSeen, active)
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Empty(t, s.locks, "locks are released when idle")
}

func TestSerializer_OriginsDoNotBlockEachOther(t *testing.T) {
	s := NewSerializer()
	unlockA := s.Lock("a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlock := s.Lock("b")
		unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("origin b blocked by origin a")
	}
}
