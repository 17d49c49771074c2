package app

import (
	"github.com/vk/dmsweep/internal/registry"
	"github.com/vk/dmsweep/modules/command"
	"github.com/vk/dmsweep/modules/halotable"
	"github.com/vk/dmsweep/modules/httpengine"
	"github.com/vk/dmsweep/modules/ledgers"
	"github.com/vk/dmsweep/modules/manifest"
	"github.com/vk/dmsweep/modules/print"
	"github.com/vk/dmsweep/modules/socketio"
)

// coreModules is the definitive list of all modules that are compiled into
// the dmsweep binary.
var coreModules = []registry.Module{
	&print.Module{},
	&command.Module{},
	&httpengine.Module{},
	&manifest.Module{},
	&socketio.Module{},
	&halotable.Module{},
	&ledgers.Module{},
}
