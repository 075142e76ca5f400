package index

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cici0602/cilq/cil"
)

func TestBuildSkipsLogicalTAS(t *testing.T) {
	tas := []cil.TASet{
		{Attr: "domain", Members: []string{"httpd_t"}},
		{Attr: "confined", IsLogical: true},
	}
	idx := Build(slices.Values(tas))
	assert.Equal(t, []string{"httpd_t"}, idx.Members("domain"))
	assert.Empty(t, idx.Members("confined"))
}

func TestExpandAddsOwningAttributes(t *testing.T) {
	tas := []cil.TASet{
		{Attr: "domain", Members: []string{"httpd_t", "sshd_t"}},
		{Attr: "unconfined_domain_type", Members: []string{"httpd_t"}},
	}
	idx := Build(slices.Values(tas))

	got := idx.Expand([]string{"httpd_t"})
	assert.ElementsMatch(t, []string{"httpd_t", "domain", "unconfined_domain_type"}, got)
}

// TestExpandMonotone exercises the invariant that expand(S) is monotone in
// S: expanding a larger seed never drops a symbol present in a smaller
// seed's expansion.
func TestExpandMonotone(t *testing.T) {
	tas := []cil.TASet{
		{Attr: "domain", Members: []string{"httpd_t", "sshd_t"}},
	}
	idx := Build(slices.Values(tas))

	small := idx.Expand([]string{"httpd_t"})
	large := idx.Expand([]string{"httpd_t", "sshd_t"})
	for _, s := range small {
		assert.Contains(t, large, s)
	}
}

func TestExpandUnknownSymbolIsUnchanged(t *testing.T) {
	idx := Build(slices.Values([]cil.TASet{}))
	got := idx.Expand([]string{"nonexistent_t"})
	assert.Equal(t, []string{"nonexistent_t"}, got)
}
