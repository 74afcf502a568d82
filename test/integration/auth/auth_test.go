// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inventra Contributors

//go:build integration

package auth_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/inventra/inventra/internal/web"
)

type loginBody struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        struct {
		ID        string  `json:"id_usuario"`
		Email     string  `json:"email"`
		FirstName string  `json:"nombre"`
		LastName  string  `json:"apellido"`
		BranchID  *string `json:"id_sucursal"`
		RoleID    *string `json:"id_rol"`
		Active    bool    `json:"activo"`
	} `json:"user"`
}

type sessionBody struct {
	ID        string    `json:"id_sesion"`
	StartedAt time.Time `json:"fecha_inicio"`
	ExpiresAt time.Time `json:"fecha_expiracion"`
	Active    bool      `json:"activa"`
}

func do(req *http.Request) (int, []byte) {
	resp, err := http.DefaultClient.Do(req)
	Expect(err).NotTo(HaveOccurred())
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	Expect(err).NotTo(HaveOccurred())
	return resp.StatusCode, body
}

func login(username, password string) (int, []byte) {
	form := url.Values{"username": {username}, "password": {password}}
	req, err := http.NewRequest(http.MethodPost, env.server.URL+web.AuthPrefix+"/login", strings.NewReader(form.Encode()))
	Expect(err).NotTo(HaveOccurred())
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return do(req)
}

func mustLogin(username, password string) loginBody {
	status, body := login(username, password)
	Expect(status).To(Equal(http.StatusOK), string(body))
	var lb loginBody
	Expect(json.Unmarshal(body, &lb)).To(Succeed())
	return lb
}

func withToken(method, path, token string) (int, []byte) {
	req, err := http.NewRequest(method, env.server.URL+web.AuthPrefix+path, nil)
	Expect(err).NotTo(HaveOccurred())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return do(req)
}

func detail(body []byte) string {
	var d struct {
		Detail string `json:"detail"`
	}
	Expect(json.Unmarshal(body, &d)).To(Succeed())
	return d.Detail
}

var _ = Describe("Authentication API", func() {
	It("seeds the development manifest", func() {
		Expect(env.report.AccountsCreated).To(Equal(2))
		Expect(env.report.Branches).To(Equal(2))
		Expect(env.report.Roles).To(Equal(2))
	})

	Describe("login", func() {
		It("returns a bearer token and the account without its hash", func() {
			status, body := login("test@example.com", "password123")
			Expect(status).To(Equal(http.StatusOK))
			Expect(string(body)).NotTo(ContainSubstring("password"))

			var lb loginBody
			Expect(json.Unmarshal(body, &lb)).To(Succeed())
			Expect(lb.AccessToken).NotTo(BeEmpty())
			Expect(lb.TokenType).To(Equal("bearer"))
			Expect(lb.User.Email).To(Equal("test@example.com"))
			Expect(lb.User.FirstName).To(Equal("Test"))
			Expect(lb.User.LastName).To(Equal("User"))
			Expect(lb.User.BranchID).NotTo(BeNil())
			Expect(lb.User.RoleID).NotTo(BeNil())
			Expect(lb.User.Active).To(BeTrue())
		})

		It("matches the email case-insensitively", func() {
			mustLogin("TEST@Example.COM", "password123")
		})

		It("rejects a wrong password and an unknown email alike", func() {
			status, body := login("test@example.com", "wrong")
			Expect(status).To(Equal(http.StatusUnauthorized))
			Expect(detail(body)).To(Equal(web.MsgInvalidCredentials))

			status, body = login("nobody@example.com", "password123")
			Expect(status).To(Equal(http.StatusUnauthorized))
			Expect(detail(body)).To(Equal(web.MsgInvalidCredentials))
		})

		It("rejects an inactive account", func() {
			_, err := env.pool.Exec(env.ctx, `UPDATE accounts SET active = FALSE WHERE email = 'vendedor@example.com'`)
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(func() {
				_, err := env.pool.Exec(env.ctx, `UPDATE accounts SET active = TRUE WHERE email = 'vendedor@example.com'`)
				Expect(err).NotTo(HaveOccurred())
			})

			status, _ := login("vendedor@example.com", "vendedor123")
			Expect(status).To(Equal(http.StatusUnauthorized))
		})
	})

	Describe("session lifecycle", func() {
		It("keeps a single active session per account", func() {
			first := mustLogin("vendedor@example.com", "vendedor123")

			status, body := withToken(http.MethodGet, "/session", first.AccessToken)
			Expect(status).To(Equal(http.StatusOK))
			var sb sessionBody
			Expect(json.Unmarshal(body, &sb)).To(Succeed())
			Expect(sb.Active).To(BeTrue())
			Expect(sb.ExpiresAt.Sub(sb.StartedAt)).To(Equal(sessionLifetime))

			second := mustLogin("vendedor@example.com", "vendedor123")
			Expect(second.AccessToken).NotTo(Equal(first.AccessToken))

			status, body = withToken(http.MethodGet, "/session", first.AccessToken)
			Expect(status).To(Equal(http.StatusUnauthorized))
			Expect(detail(body)).To(Equal(web.MsgInvalidSession))

			status, _ = withToken(http.MethodGet, "/session", second.AccessToken)
			Expect(status).To(Equal(http.StatusOK))

			var active int
			Expect(env.pool.QueryRow(env.ctx, `
				SELECT COUNT(*) FROM sessions s JOIN accounts a ON a.id = s.account_id
				WHERE a.email = 'vendedor@example.com' AND s.active
			`).Scan(&active)).To(Succeed())
			Expect(active).To(Equal(1))
		})

		It("ends the session on logout", func() {
			lb := mustLogin("test@example.com", "password123")

			status, body := withToken(http.MethodPost, "/logout", lb.AccessToken)
			Expect(status).To(Equal(http.StatusOK))
			Expect(string(body)).To(ContainSubstring(web.MsgLogoutSucceeded))

			status, _ = withToken(http.MethodGet, "/session", lb.AccessToken)
			Expect(status).To(Equal(http.StatusUnauthorized))

			status, body = withToken(http.MethodPost, "/logout", lb.AccessToken)
			Expect(status).To(Equal(http.StatusBadRequest))
			Expect(detail(body)).To(Equal(web.MsgLogoutFailed))
		})

		It("rejects an unknown token", func() {
			status, _ := withToken(http.MethodPost, "/logout", "not-a-token")
			Expect(status).To(Equal(http.StatusBadRequest))

			status, _ = withToken(http.MethodGet, "/session", "not-a-token")
			Expect(status).To(Equal(http.StatusUnauthorized))
		})

		It("requires a bearer token", func() {
			status, body := withToken(http.MethodGet, "/session", "")
			Expect(status).To(Equal(http.StatusUnauthorized))
			Expect(detail(body)).To(Equal(web.MsgNotAuthenticated))
		})

		It("treats an expired session as invalid although it is still active", func() {
			lb := mustLogin("test@example.com", "password123")

			env.clock.Advance(sessionLifetime + time.Second)

			status, body := withToken(http.MethodGet, "/session", lb.AccessToken)
			Expect(status).To(Equal(http.StatusUnauthorized))
			Expect(detail(body)).To(Equal(web.MsgInvalidSession))

			var active bool
			Expect(env.pool.QueryRow(env.ctx,
				`SELECT active FROM sessions WHERE token = $1`, lb.AccessToken).Scan(&active)).To(Succeed())
			Expect(active).To(BeTrue())
		})
	})
})
