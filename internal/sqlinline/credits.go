package sqlinline

const QEnsureUser = `--sql 1f6bbfc1-8553-4743-9774-22cdd35f33e6
insert into users (id, email, credits, created_at, updated_at)
values ($1::text, nullif($2::text, ''), $3::int, now(), now())
on conflict (id) do nothing;
`

// QSelectCreditsForUpdate locks the ledger row for the rest of the admission transaction.
const QSelectCreditsForUpdate = `--sql 4baa697d-acb1-4191-9516-1cfff8ccff1f
select credits
from users
where id = $1::text
for update;
`

const QDecrementCredit = `--sql 73411818-1ebf-49d4-ba5c-a1d86cfcc0bc
update users
set credits = credits - 1,
    updated_at = now()
where id = $1::text
  and credits >= 1
returning credits;
`

const QSelectCredits = `--sql 84bf14e7-8a2b-471b-80cd-85efdf727bd8
select credits
from users
where id = $1::text;
`

const QGrantCredits = `--sql 5e4f70b6-19ec-4312-a9cb-17613a9757f7
update users
set credits = credits + $2::int,
    updated_at = now()
where id = $1::text
returning credits;
`

// QRefundFailedJob records at most one refund per failed job and credits its owner.
const QRefundFailedJob = `--sql 47e136da-1ab3-4061-91be-0a01c6d9498b
with target as (
    select id, user_id
    from video_jobs
    where id = $1::uuid
      and status = 'FAILED'
),
recorded as (
    insert into credit_refunds (job_id, user_id, amount, created_at)
    select id, user_id, $2::int, now()
    from target
    on conflict (job_id) do nothing
    returning user_id, amount
)
update users
set credits = users.credits + recorded.amount,
    updated_at = now()
from recorded
where users.id = recorded.user_id
returning users.id, users.credits;
`

const QSelectJobRefundState = `--sql 8489f335-34a5-4b60-ae6f-22bdc167246d
select j.status, (r.job_id is not null) as refunded
from video_jobs j
left join credit_refunds r on r.job_id = j.id
where j.id = $1::uuid;
`
