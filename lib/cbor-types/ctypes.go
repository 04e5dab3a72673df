package cbortypes

import (
	snapshotstore "staking-timetravel/modules/snapshot-store"
)

// RegisterTypes registers every type persisted as DAG-CBOR. Call once from
// main before any plugin is initialized.
func RegisterTypes() {
	snapshotstore.RegisterCbor()
}
