package account

import "context"

type Service struct {
	Repo *Repository
}

func NewService(repo *Repository) *Service {
	return &Service{Repo: repo}
}

// Register creates the account and logs it in.
func (s *Service) Register(ctx context.Context, username, email, password string) (Account, error) {
	users, err := s.Repo.Load(ctx)
	if err != nil {
		return Account{}, err
	}

	next, a, err := register(users, username, email, password)
	if err != nil {
		return Account{}, err
	}
	if err := s.Repo.Save(ctx, next); err != nil {
		return Account{}, err
	}
	if err := s.Repo.SetSession(ctx, a.Username); err != nil {
		return Account{}, err
	}
	return a, nil
}

func (s *Service) Login(ctx context.Context, username, password string) (Account, error) {
	users, err := s.Repo.Load(ctx)
	if err != nil {
		return Account{}, err
	}

	a, err := authenticate(users, username, password)
	if err != nil {
		return Account{}, err
	}
	if err := s.Repo.SetSession(ctx, a.Username); err != nil {
		return Account{}, err
	}
	return a, nil
}

func (s *Service) Logout(ctx context.Context) error {
	return s.Repo.ClearSession(ctx)
}

// Current resolves the session to its account. ok is false for a guest or a
// session whose account no longer exists.
func (s *Service) Current(ctx context.Context) (Account, bool, error) {
	username, err := s.Repo.Session(ctx)
	if err != nil || username == "" {
		return Account{}, false, err
	}

	users, err := s.Repo.Load(ctx)
	if err != nil {
		return Account{}, false, err
	}
	i := findByUsername(users, username)
	if i < 0 {
		return Account{}, false, nil
	}
	return users[i], true, nil
}

func (s *Service) UpdateSettings(ctx context.Context, username string, in Settings) (Account, error) {
	users, err := s.Repo.Load(ctx)
	if err != nil {
		return Account{}, err
	}

	next, a, err := updateSettings(users, username, in)
	if err != nil {
		return Account{}, err
	}
	return a, s.Repo.Save(ctx, next)
}

// AppendOrder puts o at the front of the user's history.
func (s *Service) AppendOrder(ctx context.Context, username string, o Order) error {
	users, err := s.Repo.Load(ctx)
	if err != nil {
		return err
	}

	next, err := appendOrder(users, username, o)
	if err != nil {
		return err
	}
	return s.Repo.Save(ctx, next)
}

// Exists reports whether username has an account, without touching state.
func (s *Service) Exists(ctx context.Context, username string) (bool, error) {
	users, err := s.Repo.Load(ctx)
	if err != nil {
		return false, err
	}
	return findByUsername(users, username) >= 0, nil
}
