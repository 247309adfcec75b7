package token

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// secretKey 是一个全局变量，用于存储服务器在启动时生成的32字节密钥。
// 密钥只存在于进程内存中，重启后所有旧令牌自动失效。
var secretKey []byte

// SessionClaims 定义了会话令牌中携带的数据结构。
// 它在登录/注册的响应中被签发，并在后续请求的Authorization头中被验证。
type SessionClaims struct {
	UserID    string `json:"u"`
	Role      string `json:"r"`
	ExpiresAt int64  `json:"e"` // Unix秒
}

// 验证失败时返回的错误
var (
	ErrMalformedToken = errors.New("令牌格式错误")
	ErrBadSignature   = errors.New("令牌签名无效")
	ErrTokenExpired   = errors.New("令牌已过期")
)

// GenerateSecretKey 生成一个密码学安全的32字节随机密钥。
func GenerateSecretKey() {
	key := make([]byte, 32)
	_, err := rand.Read(key)
	if err != nil {
		panic("无法生成安全的密钥: " + err.Error())
	}
	secretKey = key
	fmt.Println("HMAC密钥已成功生成。")
}

// sign 使用HMAC-SHA256和密钥对payload进行签名。
func sign(payload []byte) []byte {
	mac := hmac.New(sha256.New, secretKey)
	mac.Write(payload)
	return mac.Sum(nil)
}

// IssueSessionToken 为给定的声明签发一个形如 "payload.signature" 的令牌。
// 两部分均为Base64 URL编码。
func IssueSessionToken(claims SessionClaims) (string, error) {
	payloadBytes, err := json.Marshal(claims)
	if err != nil {
		return "", errors.New("无法序列化会话声明")
	}

	encodedPayload := base64.RawURLEncoding.EncodeToString(payloadBytes)
	encodedSignature := base64.RawURLEncoding.EncodeToString(sign(payloadBytes))
	return encodedPayload + "." + encodedSignature, nil
}

// ValidateSessionToken 验证令牌的签名和有效期，成功时返回其中的声明。
func ValidateSessionToken(tokenStr string) (*SessionClaims, error) {
	parts := strings.SplitN(tokenStr, ".", 2)
	if len(parts) != 2 {
		return nil, ErrMalformedToken
	}

	payloadBytes, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, ErrMalformedToken
	}
	actualSignature, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, ErrMalformedToken
	}

	// 使用 hmac.Equal 进行安全的、时间恒定的比较，防止时序攻击
	if !hmac.Equal(sign(payloadBytes), actualSignature) {
		return nil, ErrBadSignature
	}

	var claims SessionClaims
	if err := json.Unmarshal(payloadBytes, &claims); err != nil {
		return nil, ErrMalformedToken
	}

	if time.Now().Unix() > claims.ExpiresAt {
		return nil, ErrTokenExpired
	}

	return &claims, nil
}
