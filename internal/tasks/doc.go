// Package tasks defines the leaf build tasks of a LIEStudio-style web app
// and the composite pipelines built from them.
//
// Every task is registered by name through [Register], which replaces a
// directory scan with an explicit list of registration calls:
//
//	clean        remove the dist directory
//	copy:dist    copy static files from src to dist
//	ts:dist      compile TypeScript into dist/app
//	sass:dist    compile Sass into dist/css
//	bower:dist   copy bower package entry files into dist/lib
//	inject       write script and stylesheet tags into the index page
//	server:init  serve dist over HTTP
//	watch        rebuild on source changes
//
// The composites [Compile], [Build] and [Serve] order those tasks. Extra
// pipelines from the configuration are registered alongside them.
//
// File operations go through an afero.Fs so tests can use an in-memory
// filesystem. External compilers run through a [CommandRunner].
package tasks
