package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// minSecretLen はHS256で安全とされる秘密鍵の最小バイト長。
const minSecretLen = 32

// ErrInvalidToken は署名不一致・構造不正・期限切れのトークンに対して返される。
var ErrInvalidToken = errors.New("トークンが無効です")

// Config はMinterの設定。起動時に構築された後は変更しない。
type Config struct {
	// Secret はHMAC-SHA256署名用の秘密鍵。32バイト以上であること。
	Secret []byte
	// Issuer はissクレームに設定する発行者名。
	Issuer string
	// TTL はトークンの有効期間。
	TTL time.Duration
}

// Minter はBearerトークンの発行・検証を行う。
// 設定は読み取り専用であり、複数ゴルーチンから安全に共有できる。
type Minter struct {
	config Config
}

// Claims は検証済みトークンから取り出したクレーム。
type Claims struct {
	// Subject はsubクレーム（ユーザー名）。
	Subject string
	// Issuer はissクレーム。
	Issuer string
	// IssuedAt はiatクレーム（発行時刻）。
	IssuedAt time.Time
	// ExpiresAt はexpクレーム（失効時刻）。
	ExpiresAt time.Time
	// Roles はrolesクレーム。発行時の順序を保持する。
	Roles []string
	// Extra は予約クレーム以外の追加クレーム。
	Extra map[string]any
}

// reservedClaims はMintが上書きする予約クレーム名。
var reservedClaims = map[string]struct{}{
	"sub":   {},
	"iss":   {},
	"iat":   {},
	"exp":   {},
	"roles": {},
}

// NewMinter は新しいMinterを生成する。
// 秘密鍵が短い、またはTTLが不正な場合はエラーを返す。
func NewMinter(config Config) (*Minter, error) {
	if len(config.Secret) < minSecretLen {
		return nil, fmt.Errorf("JWT秘密鍵は%dバイト以上必要です: got %dバイト", minSecretLen, len(config.Secret))
	}
	if config.Issuer == "" {
		return nil, errors.New("JWT発行者名が設定されていません")
	}
	if config.TTL <= 0 {
		return nil, fmt.Errorf("JWT有効期間が不正です: %v", config.TTL)
	}
	return &Minter{config: config}, nil
}

// Mint は署名付きトークンを発行する。
// クレームはextraを起点に構築し、sub・iss・iat・exp・rolesの予約クレームは
// extraの同名エントリより優先して上書きする。
func (m *Minter) Mint(subject string, roles []string, extra map[string]any) (string, error) {
	if subject == "" {
		return "", errors.New("subjectが空です")
	}

	claims := jwt.MapClaims{}
	for k, v := range extra {
		claims[k] = v
	}

	now := time.Now()
	claims["sub"] = subject
	claims["iss"] = m.config.Issuer
	claims["iat"] = jwt.NewNumericDate(now)
	claims["exp"] = jwt.NewNumericDate(now.Add(m.config.TTL))
	claims["roles"] = roles

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.config.Secret)
	if err != nil {
		return "", fmt.Errorf("トークンの署名に失敗: %w", err)
	}
	return signed, nil
}

// Parse はトークンを検証してクレームを取り出す。
// 署名不一致・構造不正・期限切れの場合はErrInvalidTokenを返す。
func (m *Minter) Parse(tokenString string) (*Claims, error) {
	parsed, err := jwt.Parse(tokenString,
		func(_ *jwt.Token) (any, error) { return m.config.Secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.config.Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	return claimsFromMap(mapClaims)
}

// IsValid はトークンが検証を通るかどうかを返す。
func (m *Minter) IsValid(tokenString string) bool {
	_, err := m.Parse(tokenString)
	return err == nil
}

// claimsFromMap はjwt.MapClaimsを型付きのClaimsに変換する。
func claimsFromMap(mapClaims jwt.MapClaims) (*Claims, error) {
	claims := &Claims{Extra: map[string]any{}}

	sub, err := mapClaims.GetSubject()
	if err != nil || sub == "" {
		return nil, ErrInvalidToken
	}
	claims.Subject = sub

	iss, err := mapClaims.GetIssuer()
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims.Issuer = iss

	iat, err := mapClaims.GetIssuedAt()
	if err != nil || iat == nil {
		return nil, ErrInvalidToken
	}
	claims.IssuedAt = iat.Time

	exp, err := mapClaims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, ErrInvalidToken
	}
	claims.ExpiresAt = exp.Time

	if raw, ok := mapClaims["roles"]; ok {
		rawRoles, ok := raw.([]any)
		if !ok {
			return nil, ErrInvalidToken
		}
		for _, r := range rawRoles {
			role, ok := r.(string)
			if !ok {
				return nil, ErrInvalidToken
			}
			claims.Roles = append(claims.Roles, role)
		}
	}

	for k, v := range mapClaims {
		if _, reserved := reservedClaims[k]; reserved {
			continue
		}
		claims.Extra[k] = v
	}
	return claims, nil
}
