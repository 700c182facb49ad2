package account

import (
	"errors"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const StatusProcessing = "Processing"

var (
	ErrFieldsRequired       = errors.New("username, email and password are required")
	ErrEmailTaken           = errors.New("email already registered")
	ErrUsernameTaken        = errors.New("username already registered")
	ErrUserNotFound         = errors.New("user not found")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrEmailRequired        = errors.New("email is required")
	ErrWrongCurrentPassword = errors.New("current password is incorrect")
	ErrPasswordMismatch     = errors.New("new passwords do not match")
)

// Account passwords are stored and compared as plain text.
type Account struct {
	Username string  `json:"username"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
	History  []Order `json:"history"`
}

// Order is a purchase snapshot; prices do not follow later catalogue edits.
type Order struct {
	Date   string          `json:"date"`
	Items  []OrderItem     `json:"items"`
	Amount decimal.Decimal `json:"amount"`
	Status string          `json:"status"`
}

type OrderItem struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

type Settings struct {
	Email           string
	CurrentPassword string
	NewPassword     string
	ConfirmPassword string
}

func findByUsername(users []Account, username string) int {
	for i := range users {
		if strings.EqualFold(users[i].Username, username) {
			return i
		}
	}
	return -1
}

func findByEmail(users []Account, email string) int {
	for i := range users {
		if users[i].Email != "" && strings.EqualFold(users[i].Email, email) {
			return i
		}
	}
	return -1
}

func register(users []Account, username, email, password string) ([]Account, Account, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return users, Account{}, ErrFieldsRequired
	}
	if findByEmail(users, email) >= 0 {
		return users, Account{}, ErrEmailTaken
	}
	if findByUsername(users, username) >= 0 {
		return users, Account{}, ErrUsernameTaken
	}

	a := Account{Username: username, Email: email, Password: password, History: []Order{}}
	out := make([]Account, len(users), len(users)+1)
	copy(out, users)
	return append(out, a), a, nil
}

func authenticate(users []Account, username, password string) (Account, error) {
	i := findByUsername(users, strings.TrimSpace(username))
	if i < 0 {
		return Account{}, ErrUserNotFound
	}
	if users[i].Password != password {
		return Account{}, ErrInvalidCredentials
	}
	return users[i], nil
}

func updateSettings(users []Account, username string, in Settings) ([]Account, Account, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" {
		return users, Account{}, ErrEmailRequired
	}

	i := findByUsername(users, username)
	if i < 0 {
		return users, Account{}, ErrUserNotFound
	}
	a := users[i]
	if in.CurrentPassword != a.Password {
		return users, Account{}, ErrWrongCurrentPassword
	}
	if in.NewPassword != "" || in.ConfirmPassword != "" {
		if in.NewPassword != in.ConfirmPassword {
			return users, Account{}, ErrPasswordMismatch
		}
		a.Password = in.NewPassword
	}
	a.Email = email

	out := make([]Account, len(users))
	copy(out, users)
	out[i] = a
	return out, a, nil
}

func appendOrder(users []Account, username string, o Order) ([]Account, error) {
	i := findByUsername(users, username)
	if i < 0 {
		return users, ErrUserNotFound
	}

	out := make([]Account, len(users))
	copy(out, users)

	history := make([]Order, 0, len(users[i].History)+1)
	history = append(history, o)
	out[i].History = append(history, users[i].History...)
	return out, nil
}

// HistoryRow is one rendered line of the purchase history table.
type HistoryRow struct {
	Date   string `json:"date"`
	Item   string `json:"item"`
	Total  string `json:"total"`
	Status string `json:"status"`
}

func HistoryRows(history []Order) []HistoryRow {
	rows := make([]HistoryRow, 0, len(history))
	for _, o := range history {
		for _, it := range o.Items {
			rows = append(rows, HistoryRow{
				Date:   o.Date,
				Item:   it.Name + " x" + strconv.Itoa(it.Quantity),
				Total:  it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))).StringFixed(2),
				Status: o.Status,
			})
		}
	}
	return rows
}
