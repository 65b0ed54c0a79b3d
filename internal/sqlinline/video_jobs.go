package sqlinline

const QInsertVideoJob = `--sql b06b96bf-0e58-418c-a44b-7ddb782e6855
insert into video_jobs (id, user_id, prompt, locale, status, scenes, created_at, updated_at)
values ($1::uuid, $2::text, $3::text, $4::text, 'PENDING', '[]'::jsonb, now(), now());
`

const videoJobColumns = `id::text, user_id, prompt, locale, status, scenes, usage,
       coalesce(failure_stage, ''), coalesce(failure_kind, ''), coalesce(failure_reason, ''),
       coalesce(artifact_ref, ''), created_at, updated_at`

const QSelectVideoJob = `--sql af36684d-9745-44ff-bd63-7fa379828ea8
select ` + videoJobColumns + `
from video_jobs
where id = $1::uuid;
`

const QSelectVideoJobForUser = `--sql 49e47e70-73f7-45b9-aa95-55d7f5d5da0a
select ` + videoJobColumns + `
from video_jobs
where id = $1::uuid
  and user_id = $2::text;
`

// QClaimVideoJob is the single conditional transition that lets exactly one
// actor move a job out of PENDING.
const QClaimVideoJob = `--sql 2bc6011b-deaa-4342-bb05-efe35cba5a2f
update video_jobs
set status = 'SCRIPTING',
    claimed_at = now(),
    updated_at = now()
where id = $1::uuid
  and status = 'PENDING'
returning ` + videoJobColumns + `;
`

const QSaveVideoScript = `--sql 6337f4e3-7bf3-4c4e-84f8-ebb0bb77ec37
update video_jobs
set status = 'RENDERING',
    scenes = $2::jsonb,
    usage = $3::jsonb,
    updated_at = now()
where id = $1::uuid
  and status = 'SCRIPTING';
`

const QSaveVideoAssets = `--sql e7dcbf9d-b45c-4bb4-a104-514b40cc3a5c
update video_jobs
set status = 'ASSEMBLING',
    scenes = $2::jsonb,
    updated_at = now()
where id = $1::uuid
  and status = 'RENDERING';
`

const QCompleteVideoJob = `--sql c8d861d3-39a2-46cb-9d28-44cdfd20bce8
update video_jobs
set status = 'COMPLETE',
    artifact_ref = $2::text,
    updated_at = now()
where id = $1::uuid
  and status = 'ASSEMBLING';
`

const QFailVideoJob = `--sql 0e8792d1-ec6e-48bc-a07e-3d75c0e464d0
update video_jobs
set status = 'FAILED',
    failure_stage = $2::text,
    failure_kind = $3::text,
    failure_reason = $4::text,
    updated_at = now()
where id = $1::uuid
  and status not in ('COMPLETE', 'FAILED');
`

const QSelectStalePendingJobs = `--sql e8941367-de1f-4cfd-95cc-796cdd6206e1
select id::text
from video_jobs
where status = 'PENDING'
  and created_at < $1::timestamptz
order by created_at asc
limit $2::int;
`
