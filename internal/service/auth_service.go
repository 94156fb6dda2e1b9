package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	config "github.com/maheshrc27/socialflow/configs"
	"github.com/maheshrc27/socialflow/internal/models"
	"github.com/maheshrc27/socialflow/internal/repository"
	"github.com/maheshrc27/socialflow/internal/transfer"
	"github.com/maheshrc27/socialflow/pkg/utils"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
)

const oauthStateTTL = 10 * time.Minute

var facebookScopes = []string{
	"public_profile",
	"email",
	"pages_show_list",
	"pages_read_engagement",
	"pages_manage_posts",
	"read_insights",
}

type AuthService interface {
	LoginURL() (string, error)
	LoginCallback(ctx context.Context, code, state string) (userID int64, err error)
}

type authService struct {
	cfg   config.Config
	oauth *oauth2.Config
	tx    repository.Transactor
	u     repository.UserRepository
	pages repository.SocialPageRepository
	vault TokenVault
	graph GraphReader
}

func NewAuthService(
	cfg config.Config,
	tx repository.Transactor,
	u repository.UserRepository,
	pages repository.SocialPageRepository,
	vault TokenVault,
	graph GraphReader) AuthService {
	return &authService{
		cfg: cfg,
		oauth: &oauth2.Config{
			ClientID:     cfg.Facebook.ClientID,
			ClientSecret: cfg.Facebook.ClientSecret,
			RedirectURL:  cfg.Facebook.RedirectURI,
			Scopes:       facebookScopes,
			Endpoint:     facebook.Endpoint,
		},
		tx:    tx,
		u:     u,
		pages: pages,
		vault: vault,
		graph: graph,
	}
}

func (s *authService) LoginURL() (string, error) {
	if s.oauth.ClientID == "" || s.oauth.ClientSecret == "" || s.oauth.RedirectURL == "" {
		err := errors.New("OAuth2 configuration is incomplete")
		slog.Info(err.Error())
		return "", err
	}

	states, err := utils.NewTokenSigner(s.cfg.SecretKey, utils.AudienceOAuthState)
	if err != nil {
		return "", err
	}
	state, err := states.Issue("oauth-state", oauthStateTTL)
	if err != nil {
		return "", err
	}
	return s.oauth.AuthCodeURL(state), nil
}

// LoginCallback exchanges the code, upserts the user and stores every page the user
// manages with its page token encrypted.
func (s *authService) LoginCallback(ctx context.Context, code, state string) (int64, error) {
	if code == "" || state == "" {
		err := errors.New("code or state is empty")
		slog.Info(err.Error())
		return 0, err
	}
	states, err := utils.NewTokenSigner(s.cfg.SecretKey, utils.AudienceOAuthState)
	if err != nil {
		return 0, err
	}
	if _, err := states.Verify(state); err != nil {
		return 0, fmt.Errorf("invalid oauth state: %w", err)
	}

	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	var me struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		Email   string `json:"email"`
		Picture struct {
			Data struct {
				URL string `json:"url"`
			} `json:"data"`
		} `json:"picture"`
	}
	err = s.graph.Get(ctx, "/me", token.AccessToken, url.Values{"fields": {"id,name,email,picture"}}, &me)
	if err != nil {
		return 0, fmt.Errorf("fetch facebook profile: %w", err)
	}

	var accounts transfer.FacebookPagesResponse
	err = s.graph.Get(ctx, "/me/accounts", token.AccessToken, url.Values{"fields": {"id,name,access_token,category,tasks"}}, &accounts)
	if err != nil {
		return 0, fmt.Errorf("fetch facebook pages: %w", err)
	}

	var userID int64
	err = s.tx.WithinTx(ctx, func(tx *sql.Tx) error {
		userID, err = s.u.Upsert(ctx, tx, &models.User{
			FacebookID:     me.ID,
			Email:          me.Email,
			Name:           me.Name,
			ProfilePicture: me.Picture.Data.URL,
		})
		if err != nil {
			return err
		}

		for _, p := range accounts.Data {
			encrypted, err := s.vault.Encrypt(p.AccessToken)
			if err != nil {
				return fmt.Errorf("encrypt token for page %s: %w", p.ID, err)
			}
			_, err = s.pages.Upsert(ctx, tx, &models.SocialPage{
				UserID:      userID,
				Platform:    models.PlatformFacebook,
				PageID:      p.ID,
				PageName:    p.Name,
				AccessToken: encrypted,
				TokenStatus: models.TokenStatusValid,
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	slog.Info("facebook login", "user_id", userID, "pages", len(accounts.Data))
	return userID, nil
}

// SessionToken issues the API session token for a user.
func SessionToken(cfg config.Config, userID int64, ttl time.Duration) (string, error) {
	sessions, err := utils.NewTokenSigner(cfg.SecretKey, utils.AudienceSession)
	if err != nil {
		return "", err
	}
	return sessions.Issue(strconv.FormatInt(userID, 10), ttl)
}
