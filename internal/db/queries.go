package db

import (
	"context"
	"database/sql"
)

const deleteReleases = `-- name: DeleteReleases :exec
delete from releases
`

func (q *Queries) DeleteReleases(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteReleases)
	return err
}

const insertRelease = `-- name: InsertRelease :exec
insert into releases(
    channel, position,
    major, minor, patch, version_detail,
    download_link, download_link_installer, download_link_archive,
    download_type, download_size, release_date,
    tag, os, arch, sha256, ga_label
) values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

type InsertReleaseParams struct {
	Channel               string
	Position              int64
	Major                 int64
	Minor                 int64
	Patch                 int64
	VersionDetail         string
	DownloadLink          sql.NullString
	DownloadLinkInstaller sql.NullString
	DownloadLinkArchive   sql.NullString
	DownloadType          string
	DownloadSize          string
	ReleaseDate           string
	Tag                   string
	Os                    string
	Arch                  string
	Sha256                string
	GaLabel               string
}

func (q *Queries) InsertRelease(ctx context.Context, arg InsertReleaseParams) error {
	_, err := q.db.ExecContext(ctx, insertRelease,
		arg.Channel,
		arg.Position,
		arg.Major,
		arg.Minor,
		arg.Patch,
		arg.VersionDetail,
		arg.DownloadLink,
		arg.DownloadLinkInstaller,
		arg.DownloadLinkArchive,
		arg.DownloadType,
		arg.DownloadSize,
		arg.ReleaseDate,
		arg.Tag,
		arg.Os,
		arg.Arch,
		arg.Sha256,
		arg.GaLabel,
	)
	return err
}

const countReleases = `-- name: CountReleases :many
select channel, count(*) as count from releases
group by channel
order by channel
`

type CountReleasesRow struct {
	Channel string
	Count   int64
}

func (q *Queries) CountReleases(ctx context.Context) ([]CountReleasesRow, error) {
	rows, err := q.db.QueryContext(ctx, countReleases)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CountReleasesRow
	for rows.Next() {
		var i CountReleasesRow
		if err := rows.Scan(&i.Channel, &i.Count); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
