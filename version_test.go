/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package itemstore_test

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/suparena/itemstore"
)

func TestVersionInfo(t *testing.T) {
	info := itemstore.GetVersionInfo()

	assert.Equal(t, itemstore.Version, info.Version)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.NotEmpty(t, info.GitCommit)
	assert.Contains(t, info.String(), "itemstore version "+itemstore.Version+"\n")
}
