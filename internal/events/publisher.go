// Package events emits mutation events for successfully created entities.
// The publisher is optional: deployments without a broker simply skip event
// emission.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// SubjectPrefix namespaces every mutation subject.
const SubjectPrefix = "tenantforge"

// Namespace groups creation events per hierarchy level.
type Namespace string

const (
	NamespaceCustomer         Namespace = "customer"
	NamespaceOrganization     Namespace = "organization"
	NamespaceInstitution      Namespace = "institution"
	NamespaceOrganizationUnit Namespace = "organization_unit"
	NamespaceUser             Namespace = "user"
)

// Publisher emits one creation event per successfully created entity. A
// failed publish fails the create call it belongs to; persistence is not
// rolled back.
type Publisher interface {
	CreateEvent(ctx context.Context, ns Namespace, collection string, payload any) error
}

type natsPublisher struct {
	conn *nats.Conn
	log  *zap.Logger
}

// NewNATSPublisher wraps a connected NATS client. Returns nil for a nil
// connection so optional wiring stays a plain nil check.
func NewNATSPublisher(conn *nats.Conn, log *zap.Logger) Publisher {
	if conn == nil {
		return nil
	}
	return &natsPublisher{conn: conn, log: log.Named("events")}
}

func (p *natsPublisher) CreateEvent(ctx context.Context, ns Namespace, collection string, payload any) error {
	_ = ctx
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("events: encode payload: %w", err)
	}
	subject := fmt.Sprintf("%s.%s.%s.created", SubjectPrefix, ns, collection)
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("events: publish %s: %w", subject, err)
	}
	p.log.Debug("published creation event", zap.String("subject", subject))
	return nil
}
