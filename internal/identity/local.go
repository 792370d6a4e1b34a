package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
)

// LocalDirectory is a self-contained provider for standalone deployments and
// tests. It allocates ids locally and echoes the profile back; credentials
// are the concern of the real identity system.
type LocalDirectory struct {
	genID *snowflake.Node
}

func NewLocalDirectory(genID *snowflake.Node) *LocalDirectory {
	return &LocalDirectory{genID: genID}
}

func (d *LocalDirectory) Register(ctx context.Context, input UserInput) (UserDetails, error) {
	_ = ctx
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return UserDetails{}, errors.New("identity: username is required")
	}
	email := strings.TrimSpace(input.Email)
	if email == "" || !strings.Contains(email, "@") {
		return UserDetails{}, errors.New("identity: valid email is required")
	}

	enabled := true
	if input.Enabled != nil {
		enabled = *input.Enabled
	}

	return UserDetails{
		UserID:     d.genID.Generate(),
		Firstname:  strings.TrimSpace(input.Firstname),
		Lastname:   strings.TrimSpace(input.Lastname),
		Username:   username,
		Email:      email,
		Phone:      strings.TrimSpace(input.Phone),
		Salutation: strings.TrimSpace(input.Salutation),
		JobTitle:   strings.TrimSpace(input.JobTitle),
		Enabled:    enabled,
	}, nil
}
