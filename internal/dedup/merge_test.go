package dedup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nextgencrm/prospector/internal/prospect"
)

func TestBestOf(t *testing.T) {
	sparse := record("Kovovýroba Novák", "info@kovonovak.cz", "")
	full := record("Kovovýroba Novák s.r.o.", "jan.novak@kovonovak.cz", "12345679")
	full.Phone = "+420 777 123 456"
	full.Website = "https://kovonovak.cz"

	assert.Equal(t, full, BestOf([]*prospect.ProspectRecord{sparse, full}))
	assert.Nil(t, BestOf(nil))
}

func TestBestOfPenalizesGenericEmail(t *testing.T) {
	generic := record("Firma", "info@firma.cz", "")
	personal := record("Firma", "jan@firma.cz", "")

	assert.Equal(t, personal, BestOf([]*prospect.ProspectRecord{generic, personal}))
}

func TestMerge(t *testing.T) {
	master := record("Kovovýroba Novák", "info@kovonovak.cz", "")
	master.Phone = "777123456"
	master.Website = "http://kovonovak.cz"
	master.Description = "Kovovýroba."

	dup := record("Kovovýroba Novák s.r.o.", "jan.novak@kovonovak.cz", "12345679")
	dup.Phone = "+420 777 123 456"
	dup.Website = "https://kovonovak.cz"
	dup.Description = "Svařování a obrábění."

	merged := Merge(master, []*prospect.ProspectRecord{dup})

	assert.Equal(t, "Kovovýroba Novák s.r.o.", merged.CompanyName, "longer name wins")
	assert.Equal(t, "jan.novak@kovonovak.cz", merged.Email, "personal email beats role mailbox")
	assert.Equal(t, "+420 777 123 456", merged.Phone, "formatted phone wins")
	assert.Equal(t, "https://kovonovak.cz", merged.Website, "https wins")
	assert.Equal(t, "12345679", merged.ICO, "missing registry id filled")
	assert.Contains(t, merged.Description, "Kovovýroba.")
	assert.Contains(t, merged.Description, "Svařování a obrábění.")

	// master untouched
	assert.Equal(t, "info@kovonovak.cz", master.Email)
}

func TestMergeKeepsMasterFields(t *testing.T) {
	now := time.Now()
	master := prospect.NewDraft("Pekárna U Lípy", now)
	master.Email = "jan@ulipy.cz"
	master.ICO = "87654321"

	dup := prospect.NewDraft("Pekárna", now)
	dup.Email = "info@ulipy.cz"
	dup.ICO = "11111111"

	merged := Merge(master, []*prospect.ProspectRecord{dup})
	require.NotNil(t, merged)
	assert.Equal(t, "Pekárna U Lípy", merged.CompanyName)
	assert.Equal(t, "jan@ulipy.cz", merged.Email)
	assert.Equal(t, "87654321", merged.ICO)
}
