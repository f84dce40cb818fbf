// Copyright 2025 The Adressage Authors
// SPDX-License-Identifier: Apache-2.0

package web

import "github.com/miramas-sig/adressage/spatial"

// MapCenter is the initial center of the map, in Miramas.
var MapCenter = spatial.Point{Lat: 43.5861, Lng: 5.0016}

const (
	// MapZoom is the initial zoom level of the map.
	MapZoom = 15
	// MapMaxZoom is the deepest zoom level the map allows.
	MapMaxZoom = 21
	// ClusterUntilZoom is the zoom level from which markers are no longer clustered.
	ClusterUntilZoom = 17
)

// Basemap is a tile source offered by the map page.
type Basemap struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Attribution string `json:"attribution"`
}

// Basemaps are the tile sources, the first one is shown by default.
var Basemaps = []Basemap{
	{
		Name:        "OpenStreetMap",
		URL:         "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png",
		Attribution: "&copy; OpenStreetMap contributors",
	},
	{
		Name:        "Esri World Imagery",
		URL:         "https://server.arcgisonline.com/ArcGIS/rest/services/World_Imagery/MapServer/tile/{z}/{y}/{x}",
		Attribution: "Tiles © Esri",
	},
	{
		Name:        "CartoDB Positron",
		URL:         "https://{s}.basemaps.cartocdn.com/light_all/{z}/{x}/{y}{r}.png",
		Attribution: "© OpenStreetMap, CartoDB",
	},
}
