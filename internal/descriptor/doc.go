// Package descriptor reads the small metadata file an installed module keeps
// at the top of its directory (kassy.json, hubot.json or package.json) and
// normalizes the version it declares into a dotted three-part string.
package descriptor
