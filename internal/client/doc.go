// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package client implements the long-running sync client runtime.
//
// It warms the cached collections, starts the background workers and keeps
// the caches fresh until the process is asked to stop.
package client
