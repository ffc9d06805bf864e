package token

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// testSecret はテスト用のHMAC秘密鍵（32バイト以上）。
var testSecret = []byte("test-secret-key-0123456789abcdef")

// newTestMinter はテスト用のMinterを生成する。
func newTestMinter(t *testing.T) *Minter {
	t.Helper()

	m, err := NewMinter(Config{
		Secret: testSecret,
		Issuer: "medilabo-gateway",
		TTL:    3600 * time.Second,
	})
	if err != nil {
		t.Fatalf("Minterの生成に失敗: %v", err)
	}
	return m
}

// TestNewMinter はMinter生成時の設定検証のテスト。
func TestNewMinter(t *testing.T) {
	t.Parallel()

	t.Run("秘密鍵が32バイト未満の場合はエラーを返す", func(t *testing.T) {
		t.Parallel()

		_, err := NewMinter(Config{
			Secret: []byte("short"),
			Issuer: "medilabo-gateway",
			TTL:    time.Hour,
		})
		if err == nil {
			t.Error("短い秘密鍵でエラーが返らない")
		}
	})

	t.Run("発行者名が空の場合はエラーを返す", func(t *testing.T) {
		t.Parallel()

		_, err := NewMinter(Config{Secret: testSecret, TTL: time.Hour})
		if err == nil {
			t.Error("空の発行者名でエラーが返らない")
		}
	})

	t.Run("TTLが0以下の場合はエラーを返す", func(t *testing.T) {
		t.Parallel()

		_, err := NewMinter(Config{Secret: testSecret, Issuer: "medilabo-gateway", TTL: 0})
		if err == nil {
			t.Error("TTL=0でエラーが返らない")
		}
	})
}

// TestMintParse は発行と検証の往復のテスト。
func TestMintParse(t *testing.T) {
	t.Parallel()

	t.Run("発行したトークンを検証するとクレームが復元される", func(t *testing.T) {
		t.Parallel()

		m := newTestMinter(t)
		roles := []string{"ROLE_ADMIN", "ROLE_USER"}
		extra := map[string]any{"displayName": "alice"}

		tokenString, err := m.Mint("alice", roles, extra)
		if err != nil {
			t.Fatalf("トークン発行に失敗: %v", err)
		}
		if len(strings.Split(tokenString, ".")) != 3 {
			t.Fatalf("コンパクト形式が3セグメントでない: %q", tokenString)
		}

		claims, err := m.Parse(tokenString)
		if err != nil {
			t.Fatalf("トークン検証に失敗: %v", err)
		}
		if claims.Subject != "alice" {
			t.Errorf("sub: got %q, want %q", claims.Subject, "alice")
		}
		if claims.Issuer != "medilabo-gateway" {
			t.Errorf("iss: got %q, want %q", claims.Issuer, "medilabo-gateway")
		}
		if len(claims.Roles) != 2 || claims.Roles[0] != "ROLE_ADMIN" || claims.Roles[1] != "ROLE_USER" {
			t.Errorf("roles: got %v, want %v", claims.Roles, roles)
		}
		if claims.Extra["displayName"] != "alice" {
			t.Errorf("displayName: got %v, want %q", claims.Extra["displayName"], "alice")
		}
		if got := claims.ExpiresAt.Sub(claims.IssuedAt); got != 3600*time.Second {
			t.Errorf("exp-iat: got %v, want %v", got, 3600*time.Second)
		}
	})

	t.Run("予約クレームはextraの同名エントリより優先される", func(t *testing.T) {
		t.Parallel()

		m := newTestMinter(t)
		extra := map[string]any{
			"sub":         "mallory",
			"iss":         "evil-issuer",
			"displayName": "alice",
		}

		tokenString, err := m.Mint("alice", []string{"ROLE_USER"}, extra)
		if err != nil {
			t.Fatalf("トークン発行に失敗: %v", err)
		}

		claims, err := m.Parse(tokenString)
		if err != nil {
			t.Fatalf("トークン検証に失敗: %v", err)
		}
		if claims.Subject != "alice" {
			t.Errorf("sub: got %q, want %q", claims.Subject, "alice")
		}
		if claims.Issuer != "medilabo-gateway" {
			t.Errorf("iss: got %q, want %q", claims.Issuer, "medilabo-gateway")
		}
	})

	t.Run("subjectが空の場合は発行に失敗する", func(t *testing.T) {
		t.Parallel()

		m := newTestMinter(t)
		if _, err := m.Mint("", nil, nil); err == nil {
			t.Error("空のsubjectでエラーが返らない")
		}
	})
}

// TestParseRejection は不正トークンの拒否のテスト。
func TestParseRejection(t *testing.T) {
	t.Parallel()

	t.Run("期限切れトークンを拒否する", func(t *testing.T) {
		t.Parallel()

		m := newTestMinter(t)

		// 過去に失効したトークンを同じ秘密鍵で直接作る
		now := time.Now()
		expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "alice",
			"iss": "medilabo-gateway",
			"iat": jwt.NewNumericDate(now.Add(-2 * time.Hour)),
			"exp": jwt.NewNumericDate(now.Add(-1 * time.Hour)),
		})
		tokenString, err := expired.SignedString(testSecret)
		if err != nil {
			t.Fatalf("期限切れトークンの生成に失敗: %v", err)
		}

		if _, err := m.Parse(tokenString); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("期限切れトークンの拒否エラー: got %v, want ErrInvalidToken", err)
		}
		if m.IsValid(tokenString) {
			t.Error("期限切れトークンがIsValidでtrueになる")
		}
	})

	t.Run("改ざんされたトークンを拒否する", func(t *testing.T) {
		t.Parallel()

		m := newTestMinter(t)
		tokenString, err := m.Mint("alice", []string{"ROLE_USER"}, nil)
		if err != nil {
			t.Fatalf("トークン発行に失敗: %v", err)
		}

		segments := strings.Split(tokenString, ".")
		for i, name := range []string{"ヘッダー", "ペイロード", "署名"} {
			mutated := make([]string, len(segments))
			copy(mutated, segments)

			// セグメント先頭の1文字を別のbase64url文字に差し替える
			b := []byte(mutated[i])
			if b[0] == 'A' {
				b[0] = 'B'
			} else {
				b[0] = 'A'
			}
			mutated[i] = string(b)

			tampered := strings.Join(mutated, ".")
			if m.IsValid(tampered) {
				t.Errorf("%s改ざんトークンが検証を通ってしまう", name)
			}
		}
	})

	t.Run("発行者が異なるトークンを拒否する", func(t *testing.T) {
		t.Parallel()

		m := newTestMinter(t)

		other, err := NewMinter(Config{
			Secret: testSecret,
			Issuer: "other-issuer",
			TTL:    time.Hour,
		})
		if err != nil {
			t.Fatalf("Minterの生成に失敗: %v", err)
		}

		tokenString, err := other.Mint("alice", nil, nil)
		if err != nil {
			t.Fatalf("トークン発行に失敗: %v", err)
		}
		if m.IsValid(tokenString) {
			t.Error("発行者不一致トークンが検証を通ってしまう")
		}
	})

	t.Run("構造が不正な文字列を拒否する", func(t *testing.T) {
		t.Parallel()

		m := newTestMinter(t)
		for _, garbage := range []string{"", "abc", "a.b", "a.b.c.d", "....."} {
			if m.IsValid(garbage) {
				t.Errorf("不正な構造 %q が検証を通ってしまう", garbage)
			}
		}
	})
}
