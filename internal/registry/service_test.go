package registry

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nextgencrm/prospector/pkg/ares"
)

type fakeAres struct {
	subjectCalls int
	subject      *ares.SubjectResponse
	subjectErr   error
	vr           *ares.PublicRegisterResponse
	vrErr        error
}

func (f *fakeAres) Subject(context.Context, string) (*ares.SubjectResponse, error) {
	f.subjectCalls++
	return f.subject, f.subjectErr
}

func (f *fakeAres) PublicRegister(context.Context, string) (*ares.PublicRegisterResponse, error) {
	if f.vrErr != nil {
		return nil, f.vrErr
	}
	return f.vr, nil
}

func sampleSubject() *ares.SubjectResponse {
	return &ares.SubjectResponse{
		ICO:           "12345679",
		ObchodniJmeno: "Kovovýroba Novák s.r.o.",
		PravniForma:   "112",
		DIC:           "CZ12345679",
		DatumVzniku:   "2009-04-01",
		Sidlo: &ares.Sidlo{
			NazevUlice:      "Dlouhá",
			CisloDomovni:    12,
			CisloOrientacni: 3,
			NazevObce:       "Brno",
			PSC:             60200,
			NazevOkresu:     "Brno-město",
		},
		CzNace: []string{"45200", "999"},
		SeznamRegistraci: map[string]any{
			"stavZdrojeVr":  "AKTIVNI",
			"stavZdrojeRes": "NEEXISTUJICI",
		},
	}
}

func TestLookup(t *testing.T) {
	fake := &fakeAres{
		subject: sampleSubject(),
		vr: &ares.PublicRegisterResponse{
			ICO: "12345679",
			ZapisVr: ares.VRRecord{ZakonniZastupci: []ares.Representative{
				{Jmeno: "Petr Svoboda", Funkce: "prokurista"},
				{Jmeno: "Jan Novák", Funkce: "jednatel"},
			}},
		},
	}
	svc := NewService(Config{Client: fake})

	got, err := svc.Lookup(context.Background(), "12345679")
	require.NoError(t, err)

	assert.Equal(t, "Kovovýroba Novák s.r.o.", got.CompanyName)
	assert.Equal(t, "Společnost s ručením omezeným", got.LegalForm)
	assert.Equal(t, "112", got.LegalFormCode)
	assert.Equal(t, "CZ12345679", got.TaxID)
	assert.Equal(t, "Dlouhá 12 /3", got.Street)
	assert.Equal(t, "Brno", got.City)
	assert.Equal(t, "60200", got.PostalCode)
	assert.Equal(t, "Brno-město", got.State)
	assert.Equal(t, "Czech Republic", got.Country)

	require.Len(t, got.Activities, 2)
	assert.Equal(t, "Údržba a oprava motorových vozidel", got.Activities[0].Description)
	assert.Equal(t, "NACE 999", got.Activities[1].Description)
	assert.Equal(t, "Údržba a oprava motorových vozidel", got.Industry)

	assert.Equal(t, []string{"VR"}, got.Registrations)

	require.Len(t, got.Management, 2)
	assert.Equal(t, "Jan Novák", got.CEOName)
}

func TestLookupInvalidICO(t *testing.T) {
	svc := NewService(Config{Client: &fakeAres{}})

	_, err := svc.Lookup(context.Background(), "12345670")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid ICO")
}

func TestLookupWithoutPublicRegister(t *testing.T) {
	fake := &fakeAres{subject: sampleSubject(), vrErr: ares.ErrNotFound}
	svc := NewService(Config{Client: fake})

	got, err := svc.Lookup(context.Background(), "12345679")
	require.NoError(t, err)
	assert.Empty(t, got.CEOName)
	assert.Empty(t, got.Management)
	assert.Equal(t, "Kovovýroba Novák s.r.o.", got.CompanyName)
}

func TestLookupCapsActivities(t *testing.T) {
	subject := sampleSubject()
	subject.CzNace = nil
	for i := 0; i < 15; i++ {
		subject.CzNace = append(subject.CzNace, "45200")
	}
	fake := &fakeAres{subject: subject, vrErr: ares.ErrNotFound}
	svc := NewService(Config{Client: fake})

	got, err := svc.Lookup(context.Background(), "12345679")
	require.NoError(t, err)
	assert.Len(t, got.Activities, maxActivities)
}

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memCache) GetCached(_ context.Context, kind, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[kind+"|"+key], nil
}

func (m *memCache) SetCached(_ context.Context, kind, key string, data []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = make(map[string][]byte)
	}
	m.data[kind+"|"+key] = data
	return nil
}

func TestLookupUsesCache(t *testing.T) {
	fake := &fakeAres{subject: sampleSubject(), vrErr: ares.ErrNotFound}
	svc := NewService(Config{Client: fake, Cache: &memCache{}})

	first, err := svc.Lookup(context.Background(), "12345679")
	require.NoError(t, err)

	second, err := svc.Lookup(context.Background(), "12345679")
	require.NoError(t, err)
	assert.Equal(t, first.CompanyName, second.CompanyName)
	assert.Equal(t, 1, fake.subjectCalls, "second lookup should come from cache")
}
