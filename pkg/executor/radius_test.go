package executor

import "testing"

func TestRadiusParamKeysDefaults(t *testing.T) {
	lat, lng, radius := radiusParamKeys(map[string]string{})
	if lat != "lat" || lng != "lng" || radius != "radius" {
		t.Errorf("radiusParamKeys(empty) = (%q, %q, %q), want (lat, lng, radius)", lat, lng, radius)
	}
}

func TestRadiusParamKeysHonorsObservedNames(t *testing.T) {
	lat, lng, radius := radiusParamKeys(map[string]string{"latitude": "1", "longitude": "2", "distance": "3"})
	if lat != "latitude" || lng != "longitude" || radius != "distance" {
		t.Errorf("radiusParamKeys = (%q, %q, %q), want (latitude, longitude, distance)", lat, lng, radius)
	}
}

func TestRadiusParamKeysShortRadiusAlias(t *testing.T) {
	_, _, radius := radiusParamKeys(map[string]string{"r": "5"})
	if radius != "r" {
		t.Errorf("radius = %q, want %q", radius, "r")
	}
}
