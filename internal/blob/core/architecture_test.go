package core_test

import (
	"testing"

	"origamicore/testutil"
)

func TestBlobContractImportsNoBackend(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.InfraImportForbidden, "backends depend on the contract, not the reverse")
}
