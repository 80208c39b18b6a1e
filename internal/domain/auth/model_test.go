package auth

import (
	"testing"
	"time"
)

func TestUserFullName(t *testing.T) {
	tests := []struct {
		name  string
		first string
		last  string
		email string
		want  string
	}{
		{"both names", "Анна", "Петрова", "a.petrova@mill.local", "Анна Петрова"},
		{"first only", "Анна", "", "a.petrova@mill.local", "Анна"},
		{"last only", "", "Петрова", "a.petrova@mill.local", "Петрова"},
		{"email fallback", "", "", "a.petrova@mill.local", "a.petrova@mill.local"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &User{FirstName: tt.first, LastName: tt.last, Email: tt.email}
			if got := u.FullName(); got != tt.want {
				t.Errorf("FullName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUserCanLogin(t *testing.T) {
	past := time.Now().Add(-time.Minute)
	future := time.Now().Add(10 * time.Minute)

	tests := []struct {
		name    string
		user    User
		wantErr bool
	}{
		{"active", User{IsActive: true}, false},
		{"disabled", User{IsActive: false}, true},
		{"locked", User{IsActive: true, LockedUntil: &future}, true},
		{"lock expired", User{IsActive: true, LockedUntil: &past}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.user.CanLogin()
			if (err != nil) != tt.wantErr {
				t.Errorf("CanLogin() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRecordFailedLoginLocksAtThreshold(t *testing.T) {
	u := &User{IsActive: true}

	for i := 0; i < 4; i++ {
		u.RecordFailedLogin(5, 15*time.Minute)
	}
	if u.IsLocked() {
		t.Fatal("locked before reaching the threshold")
	}

	u.RecordFailedLogin(5, 15*time.Minute)
	if !u.IsLocked() {
		t.Fatal("fifth failure must lock the account")
	}
	if u.FailedLoginAttempts != 5 {
		t.Errorf("FailedLoginAttempts = %d, want 5", u.FailedLoginAttempts)
	}

	u.RecordSuccessfulLogin()
	if u.IsLocked() || u.FailedLoginAttempts != 0 {
		t.Error("successful login must clear the lock and the counter")
	}
	if u.LastLoginAt == nil {
		t.Error("successful login must stamp LastLoginAt")
	}
}

func TestRefreshTokenIsValid(t *testing.T) {
	now := time.Now()
	revoked := now.Add(-time.Hour)

	tests := []struct {
		name  string
		token RefreshToken
		want  bool
	}{
		{"live", RefreshToken{ExpiresAt: now.Add(time.Hour)}, true},
		{"expired", RefreshToken{ExpiresAt: now.Add(-time.Second)}, false},
		{"revoked", RefreshToken{ExpiresAt: now.Add(time.Hour), RevokedAt: &revoked}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.token.IsValid(); got != tt.want {
				t.Errorf("IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHashTokenIsStable(t *testing.T) {
	a := hashToken("secret-token")
	b := hashToken("secret-token")
	if a != b {
		t.Error("same input must hash identically")
	}
	if a == hashToken("other-token") {
		t.Error("different inputs must not collide")
	}
	if len(a) != 64 {
		t.Errorf("hex digest length = %d, want 64", len(a))
	}
}
