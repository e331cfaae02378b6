package domain_test

import (
	"testing"

	"origamicore/testutil"
)

func TestDomainImportsNoInternalPackages(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.InternalImportForbidden,
		"the design model is shared by every layer and must stay free of internal packages")
}
