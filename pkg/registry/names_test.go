package registry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TEMPERINE/wa-qr-connector/pkg/engine"
	"github.com/TEMPERINE/wa-qr-connector/pkg/registry"
)

func newNamedSession(t *testing.T, contact *engine.Contact, contactErr error) (*registry.Session, *fakeClient) {
	t.Helper()
	eng := newFakeEngine()
	reg := registry.New(eng, nil)
	s := reg.GetOrCreate("acme")
	client := eng.client("acme")
	require.NotNil(t, client)
	client.contact = contact
	client.contactErr = contactErr
	return s, client
}

func TestResolveNamePriority(t *testing.T) {
	tests := []struct {
		name    string
		contact *engine.Contact
		want    string
	}{
		{
			name: "explicit name wins",
			contact: &engine.Contact{
				Name:         "Ada Lovelace",
				PushName:     "ada",
				ShortName:    "Ada",
				VerifiedName: "Lovelace Computing",
			},
			want: "Ada Lovelace",
		},
		{
			name: "push name over short name",
			contact: &engine.Contact{
				PushName:  "ada",
				ShortName: "Ada",
			},
			want: "ada",
		},
		{
			name:    "short name over verified name",
			contact: &engine.Contact{ShortName: "Ada", VerifiedName: "Lovelace Computing"},
			want:    "Ada",
		},
		{
			name:    "verified name as last variant",
			contact: &engine.Contact{VerifiedName: "Lovelace Computing"},
			want:    "Lovelace Computing",
		},
		{
			name:    "all empty falls back to bare id",
			contact: &engine.Contact{},
			want:    "123456789",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s, _ := newNamedSession(t, tc.contact, nil)
			got := s.ResolveName(context.Background(), "123456789@s.whatsapp.net")
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestResolveNameCachesFirstAnswer(t *testing.T) {
	s, client := newNamedSession(t, &engine.Contact{Name: "Ada Lovelace"}, nil)
	ctx := context.Background()

	assert.Equal(t, "Ada Lovelace", s.ResolveName(ctx, "123456789@s.whatsapp.net"))

	// A later, different engine answer must not change the cached name.
	client.contact = &engine.Contact{Name: "Someone Else"}
	assert.Equal(t, "Ada Lovelace", s.ResolveName(ctx, "123456789@s.whatsapp.net"))
}

func TestResolveNameFailureCachesFallbackPermanently(t *testing.T) {
	s, client := newNamedSession(t, nil, errors.New("engine unreachable"))
	ctx := context.Background()

	assert.Equal(t, "123456789", s.ResolveName(ctx, "+123456789@s.whatsapp.net"))

	// The engine recovered, but the fallback is cached: no retry storm,
	// no further lookups for this identifier.
	client.contactErr = nil
	client.contact = &engine.Contact{Name: "Ada Lovelace"}
	assert.Equal(t, "123456789", s.ResolveName(ctx, "+123456789@s.whatsapp.net"))
}

func TestResolveNameWithoutClient(t *testing.T) {
	eng := newFakeEngine()
	eng.newErr = errors.New("backend unavailable")
	reg := registry.New(eng, nil)
	s := reg.GetOrCreate("acme")

	assert.Equal(t, "123456789", s.ResolveName(context.Background(), "123456789@c.us"))
}

func TestTranslateMessageEnrichesAuthor(t *testing.T) {
	s, _ := newNamedSession(t, &engine.Contact{PushName: "ada"}, nil)

	dto := s.TranslateMessage(context.Background(), engine.Message{
		ID:       "msg-1",
		ChatID:   "987654321@g.us",
		AuthorID: "123456789@s.whatsapp.net",
		Body:     "hi all",
		Kind:     "chat",
	})

	assert.Equal(t, "123456789@s.whatsapp.net", dto.AuthorID)
	assert.Equal(t, "ada", dto.AuthorName)
}

func TestTranslateMessageDegradesOnLookupFailure(t *testing.T) {
	s, _ := newNamedSession(t, nil, errors.New("engine unreachable"))

	dto := s.TranslateMessage(context.Background(), engine.Message{
		ID:       "msg-1",
		ChatID:   "987654321@g.us",
		AuthorID: "123456789@s.whatsapp.net",
		Body:     "hi all",
	})

	// Enrichment failure degrades to the numeric fallback, the message
	// itself is never dropped.
	assert.Equal(t, "hi all", dto.Body)
	assert.Equal(t, "123456789", dto.AuthorName)
}
