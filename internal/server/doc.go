// Package server serves a built static site on the loopback interface
// for the duration of a local audit run.
//
// The orchestrator starts the server before launching the browser and
// stops it when the run ends. Pages are then visited as
// BaseURL() + "/about/", matching how the site is deployed.
package server
