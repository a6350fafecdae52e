/*
Package carson is a client for the Carson Living residential API.

# Auth and Client

Auth holds the account credentials and the current JWT. Every call goes
through AuthenticatedQuery, which logs in when there is no valid token and
logs in again when the API answers 401:

	auth, err := carson.NewAuth(username, password,
		carson.WithToken(savedToken),
		carson.WithTokenUpdateHook(saveToken),
	)

Client is the account root. Update fetches /me/ and brings the user and the
buildings up to date; entities keep their identity across updates, so
pointers obtained earlier stay valid:

	client := carson.NewClient(auth)
	if err := client.Update(ctx); err != nil {
		return err
	}
	for _, b := range client.Buildings() {
		for _, d := range b.Doors() {
			fmt.Println(d.Name())
		}
	}

# Cameras

Cameras are served by Eagle Eye Networks. Each Building owns an
eagleeye.Session whose auth key is obtained from the Carson Living API on
demand, and lists its cameras as *eagleeye.Camera keyed by their Eagle Eye
id (the externalId Carson Living reports):

	cam, ok := building.Camera("100d4c41")
	err := cam.Image(ctx, file, eagleeye.ImageOptions{})

# Errors

All errors are *carsonerr.Error and match the sentinels of package carsonerr
with errors.Is.
*/
package carson
