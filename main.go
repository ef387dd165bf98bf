// =============================================================================
// OC Harvester - Main Entry Point
// =============================================================================
//
// USAGE:
//   oc-harvester harvest   - Harvest one day or a range of days
//   oc-harvester inspect   - Check a produced detail file
//   oc-harvester history   - List harvested days from the ledger
//   oc-harvester version   - Display the application version
//
// ARCHITECTURE:
//   - cmd/       : CLI command definitions (Cobra)
//   - internal/  : API client, row building, day processing, exporters
//   - pkg/       : Output file layout and run summaries
//
// =============================================================================

package main

import (
	"github.com/hbsjo/oc-harvester/cmd"
)

func main() {
	cmd.Execute()
}
