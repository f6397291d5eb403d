// Copyright (c) 2022, NVIDIA CORPORATION. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package mvapich2

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/gvallee/go_hpc_omb/pkg/remote"
)

func TestParseMVAPICH2InfoOutputForVersion(t *testing.T) {
	output := `MVAPICH2 Version:       2.3.7
	MVAPICH2 Release date:  Wed March 02 22:00:00 EST 2022
	MVAPICH2 Device:        ch3:mrail
	MVAPICH2 configure:     --prefix=/global/scratch/users/benjaminm/Geoffroy-OpenHPCA-benchmark-work/mv2-2.3.7/install CC=gcc CXX=g++ --disable-fortran --enable-fast=all --enable-g=none --with-device=ch3:mrail CFLAGS=-lpthread LDFLAGS=-lpthread
	MVAPICH2 CC:    gcc -lpthread   -DNDEBUG -DNVALGRIND -O2
	MVAPICH2 CXX:   g++   -DNDEBUG -DNVALGRIND -O2
	MVAPICH2 F77:   gfortran
	MVAPICH2 FC:    gfortran`
	expectedResult := "2.3.7"

	version, err := parseMVAPICH2InfoOutputForVersion(output)
	if err != nil {
		t.Fatalf("parseMVAPICH2InfoOutputForVersion() failed: %s", err)
	}
	if version != expectedResult {
		t.Fatalf("parseMVAPICH2InfoOutputForVersion() returned %s instead of %s", version, expectedResult)
	}
}

func TestParseMVAPICH2InfoOutputForVersionInvalid(t *testing.T) {
	for _, output := range []string{"", "Open MPI v4.1.5\n"} {
		if _, err := parseMVAPICH2InfoOutputForVersion(output); err == nil {
			t.Fatalf("parseMVAPICH2InfoOutputForVersion(%q) succeeded", output)
		}
	}
}

func TestDetectFromDir(t *testing.T) {
	dir := t.TempDir()
	binDir := filepath.Join(dir, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		t.Fatalf("unable to create %s: %s", binDir, err)
	}
	script := "#!/bin/sh\nprintf 'MVAPICH2 Version:       2.3.7\\n\tMVAPICH2 Device:        ch3:mrail\\n'\n"
	if err := os.WriteFile(filepath.Join(binDir, "mpichversion"), []byte(script), 0o755); err != nil {
		t.Fatalf("unable to create mpichversion: %s", err)
	}

	id, version, err := DetectFromDir(context.Background(), &remote.Local{}, dir)
	if err != nil {
		t.Fatalf("DetectFromDir() failed: %s", err)
	}
	if id != ID || version != "2.3.7" {
		t.Fatalf("DetectFromDir() returned %s %s instead of %s 2.3.7", id, version, ID)
	}

	if _, _, err := DetectFromDir(context.Background(), &remote.Local{}, t.TempDir()); err == nil {
		t.Fatalf("DetectFromDir() succeeded on an empty directory")
	}
}
