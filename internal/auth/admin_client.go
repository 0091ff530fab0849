package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// AdminClient talks to the Supabase Auth admin API. The seed command uses it
// to provision tracker logins; requests need the service role key.
type AdminClient struct {
	supabaseURL string
	serviceKey  string
	httpClient  *http.Client
}

// NewAdminClient creates a Supabase Auth admin client.
func NewAdminClient(supabaseURL, serviceKey string) *AdminClient {
	return &AdminClient{
		supabaseURL: strings.TrimRight(supabaseURL, "/"),
		serviceKey:  serviceKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// User is an auth user as returned by the admin API.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type createUserRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	EmailConfirm bool   `json:"email_confirm"`
}

type listUsersResponse struct {
	Users []User `json:"users"`
}

// EnsureUser returns the id of the user with this email, creating a
// confirmed user with the given password when none exists.
func (c *AdminClient) EnsureUser(ctx context.Context, email, password string) (string, bool, error) {
	id, err := c.FindUserID(ctx, email)
	if err != nil {
		return "", false, err
	}
	if id != "" {
		return id, false, nil
	}

	id, err = c.CreateUser(ctx, email, password)
	if err != nil {
		return "", false, err
	}
	return id, true, nil
}

// FindUserID returns the id of the user with this email, or "" when absent.
func (c *AdminClient) FindUserID(ctx context.Context, email string) (string, error) {
	var resp listUsersResponse
	if err := c.do(ctx, http.MethodGet, "/auth/v1/admin/users", nil, &resp, http.StatusOK); err != nil {
		return "", fmt.Errorf("list users: %w", err)
	}

	for _, u := range resp.Users {
		if strings.EqualFold(u.Email, email) {
			return u.ID, nil
		}
	}
	return "", nil
}

// CreateUser creates a confirmed user and returns its id.
func (c *AdminClient) CreateUser(ctx context.Context, email, password string) (string, error) {
	payload := createUserRequest{
		Email:        email,
		Password:     password,
		EmailConfirm: true,
	}

	var user User
	if err := c.do(ctx, http.MethodPost, "/auth/v1/admin/users", payload, &user, http.StatusOK, http.StatusCreated); err != nil {
		return "", fmt.Errorf("create user: %w", err)
	}
	return user.ID, nil
}

func (c *AdminClient) do(ctx context.Context, method, path string, in, out interface{}, okStatus ...int) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.supabaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	req.Header.Set("apikey", c.serviceKey)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	ok := false
	for _, s := range okStatus {
		if resp.StatusCode == s {
			ok = true
			break
		}
	}
	if !ok {
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(data))
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
