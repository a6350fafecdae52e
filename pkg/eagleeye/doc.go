/*
Package eagleeye is a client for the Eagle Eye Networks camera API as exposed
to Carson Living residents.

Eagle Eye is a second authentication domain. There is no login: a Session
obtains its auth key and brand subdomain through a SessionFunc, which the
Carson client implements by asking the Carson API for a building-scoped
session. The subdomain is substituted into every URL and the auth key travels
as the auth_key cookie.

	session := eagleeye.NewSession(func(ctx context.Context) (string, string, error) {
		return lookupSession(ctx, buildingID)
	})

	cameras, err := session.ListCameras(ctx)

A 401 clears the session and the request is retried once with a fresh one
from the SessionFunc. A SessionFunc that returns an empty key or subdomain is
a broken link to the parent API and fails immediately with carsonerr.ErrCarson.

# Assets

Camera.Image and Camera.Video stream binary assets into an io.Writer and never
buffer them. Camera.ImageURL and Camera.VideoURL return pre-authenticated URLs
(the auth key in the A parameter) that can be handed to a player.

Live video has no timestamp and is only served as FLV; asking for live MP4
fails before any request is made.

A Session is not safe for concurrent use.
*/
package eagleeye
