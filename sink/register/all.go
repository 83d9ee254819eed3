// Package register registers all sink types.
package register

import (
	// register sinks.
	_ "github.com/datasetninja/modes-cattle/sink/local"
	_ "github.com/datasetninja/modes-cattle/sink/supervisely"
	_ "github.com/datasetninja/modes-cattle/sink/viamdata"
)
