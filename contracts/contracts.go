/*
Package contracts provides access to compiled contract artifacts: NEF files
and manifests produced by the neo-go compiler.
*/
package contracts

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/nspcc-dev/neo-go/pkg/io"
	"github.com/nspcc-dev/neo-go/pkg/smartcontract/manifest"
	"github.com/nspcc-dev/neo-go/pkg/smartcontract/nef"
)

const (
	// BatchTransferDir is a directory of BatchTransfer contract sources
	// relative to the repository root. Compiled artifacts are expected there
	// too.
	BatchTransferDir = "contracts/batchtransfer"

	nefName      = "contract.nef"
	manifestName = "manifest.json"
)

// Contract groups information about Neo contract.
type Contract struct {
	NEF      nef.File
	Manifest manifest.Manifest
}

var (
	errInvalidNEF      = errors.New("invalid NEF")
	errInvalidManifest = errors.New("invalid manifest")
)

// ReadDir reads contract.nef and manifest.json files from the given directory
// of the local file system.
func ReadDir(dir string) (Contract, error) {
	c, err := Read(os.DirFS(dir), ".")
	if err != nil {
		return c, fmt.Errorf("read contract from %s: %w", dir, err)
	}
	return c, nil
}

// Read reads contract.nef and manifest.json files from the given directory
// of fsys. It allows embedding compiled contracts into other programs.
func Read(fsys fs.FS, dir string) (Contract, error) {
	var c Contract

	// fs.FS uses "/" even on Windows, so filepath.Join() is not applicable.
	prefix := ""
	if dir != "." && dir != "" {
		prefix = dir + "/"
	}

	fNEF, err := fsys.Open(prefix + nefName)
	if err != nil {
		return c, fmt.Errorf("open NEF: %w", err)
	}
	defer fNEF.Close()

	fManifest, err := fsys.Open(prefix + manifestName)
	if err != nil {
		return c, fmt.Errorf("open manifest: %w", err)
	}
	defer fManifest.Close()

	bReader := io.NewBinReaderFromIO(fNEF)
	c.NEF.DecodeBinary(bReader)
	if bReader.Err != nil {
		return c, fmt.Errorf("%w: %w", errInvalidNEF, bReader.Err)
	}

	err = json.NewDecoder(fManifest).Decode(&c.Manifest)
	if err != nil {
		return c, fmt.Errorf("%w: %w", errInvalidManifest, err)
	}

	return c, nil
}
