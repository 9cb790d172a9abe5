package sqlinline

const jobColumns = `id, project_id, user_id, prompt, ai_prompt, model_id, is_plan_mode, status,
       code_result, summary, plan_result, error_message, progress_logs,
       started_at, completed_at, created_at, updated_at`

const QCreateJob = `--sql 3f1c8a2e-9b47-4d6a-8f21-c5e9d0a4b713
insert into generation_jobs(
    id, project_id, user_id, prompt, ai_prompt, model_id, is_plan_mode,
    status, progress_logs, created_at, updated_at
)
values (
    gen_random_uuid(), $1::uuid, $2::uuid, $3::text, $4::text, $5::text, $6::boolean,
    'pending', '{}'::text[], now(), now()
)
returning ` + jobColumns + `;
`

const QActiveJobForProject = `--sql 7be20c94-51d3-4e8f-a6b2-08f1d9c3e547
select ` + jobColumns + `
from generation_jobs
where project_id = $1::uuid
  and status in ('pending', 'running')
order by created_at desc
limit 1;
`

const QGetJob = `--sql b45a9f10-2c6e-47d1-93a8-e7f0c2b8d169
select ` + jobColumns + `
from generation_jobs
where id = $1::uuid
  and project_id = $2::uuid;
`

const QClaimJob = `--sql 9d03e7b6-4a82-4c5f-b1d7-26a8f4e0c395
with next_job as (
    select id
    from generation_jobs
    where status = 'pending'
    order by created_at asc
    for update skip locked
    limit 1
),
updated as (
    update generation_jobs
    set status = 'running',
        started_at = now(),
        progress_logs = array_append(progress_logs, $1::text),
        updated_at = now()
    where id in (select id from next_job)
    returning ` + jobColumns + `
)
select * from updated;
`

const QAppendProgress = `--sql 5c7f2d81-e094-4b36-a5c8-19d4b7f6a023
update generation_jobs
set progress_logs = array_append(progress_logs, $2::text),
    updated_at = now()
where id = $1::uuid
  and status in ('pending', 'running');
`

const QCompleteJob = `--sql 1e8b4c67-73af-4d92-b0e5-4f26a9d8c731
update generation_jobs
set status = 'completed',
    code_result = nullif($2::text, ''),
    summary = $3::text,
    plan_result = $4::jsonb,
    progress_logs = array_append(progress_logs, $5::text),
    completed_at = now(),
    updated_at = now()
where id = $1::uuid
  and status = 'running'
returning id;
`

const QFailJob = `--sql 82d6f3a9-0b15-4e78-9c4d-d7e2a50f8b64
update generation_jobs
set status = 'failed',
    error_message = $2::text,
    progress_logs = array_append(progress_logs, $3::text),
    completed_at = now(),
    updated_at = now()
where id = $1::uuid
  and status in ('pending', 'running')
returning id;
`

const QCancelJob = `--sql c29a1d50-68e4-4f3b-82a7-3b9f6e1c0d85
update generation_jobs
set status = 'cancelled',
    completed_at = now(),
    updated_at = now()
where id = $1::uuid
  and project_id = $2::uuid
  and status in ('pending', 'running')
returning ` + jobColumns + `;
`

const QJobStatus = `--sql f60d8b3c-2957-4a1e-bd60-85c3f7a2e914
select status
from generation_jobs
where id = $1::uuid;
`

const QLatestCompletedJob = `--sql 48e5a7f2-bc01-4d63-97b8-6a1d0e9c5f37
select ` + jobColumns + `
from generation_jobs
where project_id = $1::uuid
  and status = 'completed'
  and code_result is not null
order by completed_at desc
limit 1;
`
