package app

import (
	"github.com/vk/flowgridgo/actions/checkout"
	"github.com/vk/flowgridgo/actions/download_artifact"
	"github.com/vk/flowgridgo/actions/setup_runtime"
	"github.com/vk/flowgridgo/actions/task"
	"github.com/vk/flowgridgo/actions/upload_artifact"
	"github.com/vk/flowgridgo/internal/registry"
)

// coreActions is the definitive list of built-in actions compiled into the
// flowgridgo binary.
var coreActions = []registry.Module{
	&checkout.Module{},
	&setup_runtime.Module{},
	&task.Module{},
	&upload_artifact.Module{},
	&download_artifact.Module{},
}
