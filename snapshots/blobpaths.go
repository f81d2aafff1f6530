package snapshots

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	V1HierarchyPrefix       = "v1/hierarchies"
	V1HierarchyTenantPrefix = "v1/hierarchies/tenant"

	V1HierarchyPathSep               = "/"
	V1HierarchyExtSep                = "."
	V1HierarchySnapshotExt           = "snap"
	V1HierarchySnapshotBlobNameFmt   = "%016d.snap"
	V1HierarchyCheckpointBlobNameFmt = "%016d.chk"
	V1HierarchyCheckpointExt         = "chk"

	// LogInstanceN is the schema instance component of the path. It changes
	// only if the record format or numbering scheme changes in a way that is
	// not backwards compatible, so that old and new series can coexist.
	LogInstanceN = 0
)

// TenantSnapshotPrefix returns the path to the location of the snapshot blobs
// for the provided tenant identity. It is the callers responsibility to
// ensure the tenant identity has the correct form. 'tenant/uuid'
func TenantSnapshotPrefix(tenantIdentity string) string {
	return fmt.Sprintf(
		"%s/%s/%d/snapshots/", V1HierarchyPrefix, tenantIdentity,
		LogInstanceN,
	)
}

// TenantCheckpointsPrefix returns the blob path prefix for the signed view
// checkpoints. The signatures that attest to the log operators view of the
// hierarchy at the time each snapshot was written.
func TenantCheckpointsPrefix(tenantIdentity string) string {
	return fmt.Sprintf(
		"%s/%s/%d/checkpoints/", V1HierarchyPrefix, tenantIdentity,
		LogInstanceN,
	)
}

// TenantSnapshotBlobPath returns the appropriate blob path for the snapshot
// blob.
//
// The returned string forms a relative resource name with a versioned
// resource prefix of 'v1/hierarchies/{tenant-identity}/{instance}/snapshots/'
//
// Remembering that a legal {tenant-identity} has the form 'tenant/UUID'
//
// Because azure blob names and tags sort and compare only *lexically*, the
// number is represented in that path as a fixed width 16 digit decimal
// string.
func TenantSnapshotBlobPath(tenantIdentity string, number uint64) string {
	return fmt.Sprintf(
		"%s%s", TenantSnapshotPrefix(tenantIdentity), fmt.Sprintf(V1HierarchySnapshotBlobNameFmt, number),
	)
}

// TenantCheckpointBlobPath returns the appropriate blob path for the signed
// view checkpoint covering the identified snapshot.
func TenantCheckpointBlobPath(tenantIdentity string, snapshotIndex uint32) string {
	return fmt.Sprintf(
		"%s%s",
		TenantCheckpointsPrefix(tenantIdentity),
		fmt.Sprintf(V1HierarchyCheckpointBlobNameFmt, snapshotIndex),
	)
}

// IsSnapshotPathLike returns true if the path has the extension of a snapshot
// blob. It does not check the prefix schema.
func IsSnapshotPathLike(storagePath string) bool {
	return strings.HasSuffix(storagePath, V1HierarchyExtSep+V1HierarchySnapshotExt)
}

// IsCheckpointPathLike returns true if the path has the extension of a signed
// view checkpoint blob. It does not check the prefix schema.
func IsCheckpointPathLike(storagePath string) bool {
	return strings.HasSuffix(storagePath, V1HierarchyExtSep+V1HierarchyCheckpointExt)
}

// ObjectIndexFromPath classifies the storage path by its extension and parses
// the object number from its base name.
func ObjectIndexFromPath(storagePath string) (ObjectType, uint32, error) {
	// ensure it doesn't end with a slash
	storagePath = strings.TrimSuffix(storagePath, "/")
	i := strings.LastIndex(storagePath, "/")
	baseName := storagePath[i+1:]

	otypes := []ObjectType{
		ObjectSnapshotData,
		ObjectCheckpoint,
	}

	for itype, suffix := range []string{
		V1HierarchyExtSep + V1HierarchySnapshotExt,
		V1HierarchyExtSep + V1HierarchyCheckpointExt,
	} {
		if !strings.HasSuffix(baseName, suffix) {
			continue
		}
		number, err := strconv.Atoi(baseName[:len(baseName)-len(suffix)])
		if err != nil {
			return ObjectUndefined, ^uint32(0), err
		}
		return otypes[itype], uint32(number), nil
	}
	return ObjectUndefined, ^uint32(0), fmt.Errorf("path %s has no recognizable object suffix", storagePath)
}

// ParseSnapshotPathTenant recovers the tenant identity component from a
// storage path produced by TenantSnapshotBlobPath or TenantCheckpointBlobPath.
func ParseSnapshotPathTenant(storagePath string) (string, error) {
	without := strings.TrimPrefix(storagePath, V1HierarchyPrefix+V1HierarchyPathSep)
	if without == storagePath {
		return "", fmt.Errorf("path %s is not a versioned hierarchy path", storagePath)
	}
	parts := strings.SplitN(without, V1HierarchyPathSep, 3)
	if len(parts) < 3 {
		return "", fmt.Errorf("path %s is missing the tenant identity components", storagePath)
	}
	return parts[0] + V1HierarchyPathSep + parts[1], nil
}
