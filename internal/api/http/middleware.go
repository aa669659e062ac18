package http

import (
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/immxrtalbeast/huddle/internal/domain"
	"github.com/immxrtalbeast/huddle/internal/service"
)

const userKey = "huddle.user"

// Authenticator resolves the bearer token of every request in the group and
// stores the caller on the context.
type Authenticator struct {
	users service.UserInteractor
	log   *slog.Logger
}

func NewAuthenticator(users service.UserInteractor, log *slog.Logger) *Authenticator {
	return &Authenticator{users: users, log: log}
}

func (a *Authenticator) RequireUser(ctx *gin.Context) {
	token, ok := bearerToken(ctx.GetHeader("Authorization"))
	if !ok {
		writeError(ctx, a.log, service.ErrUnauthorized)
		return
	}
	user, err := a.users.ResolveToken(ctx.Request.Context(), token)
	if err != nil {
		writeError(ctx, a.log, err)
		return
	}
	ctx.Set(userKey, user)
	ctx.Next()
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func currentUser(ctx *gin.Context) *domain.User {
	return ctx.MustGet(userKey).(*domain.User)
}

// idParam parses a uuid path parameter, answering 400 when it is malformed.
func idParam(ctx *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(ctx.Param(name))
	if err != nil {
		badRequest(ctx, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}
